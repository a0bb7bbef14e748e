package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ironpoint/steeltrack-backend/internal/authz"
	dataagg "github.com/ironpoint/steeltrack-backend/internal/data/aggregates"
	"github.com/ironpoint/steeltrack-backend/internal/data/repos"
	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	domainagg "github.com/ironpoint/steeltrack-backend/internal/domain/aggregates"
	"github.com/ironpoint/steeltrack-backend/internal/domain/tracking"
	"github.com/ironpoint/steeltrack-backend/internal/platform/dbctx"
	"github.com/ironpoint/steeltrack-backend/internal/requestdata"
)

type AssignCrewInput struct {
	ProjectID    uuid.UUID
	CrewName     string
	Date         time.Time
	Shift        string
	CrewSize     int
	Zone         string
	LeadActorID  uuid.UUID
	PieceMarkIDs []uuid.UUID
}

type CrewStatusInput struct {
	CrewID uuid.UUID
	Status types.CrewStatus
}

type CrewService interface {
	Assign(ctx context.Context, in AssignCrewInput) (*types.CrewAssignment, error)
	UpdateStatus(ctx context.Context, in CrewStatusInput) (*types.CrewAssignment, error)
	Get(ctx context.Context, id uuid.UUID) (*types.CrewAssignment, error)
	List(ctx context.Context, projectID uuid.UUID) ([]*types.CrewAssignment, error)
}

type CrewServiceDeps struct {
	Base     dataagg.BaseDeps
	Projects repos.ProjectRepo
	Crews    repos.CrewAssignmentRepo
	Marks    repos.PieceMarkRepo
	Activity repos.ActivityLogRepo
	Notifier TrackingNotifier
}

type crewService struct {
	deps CrewServiceDeps
}

func NewCrewService(deps CrewServiceDeps) CrewService {
	deps.Base = deps.Base.WithDefaults()
	return &crewService{deps: deps}
}

func (s *crewService) Assign(ctx context.Context, in AssignCrewInput) (*types.CrewAssignment, error) {
	const op = "Tracking.Crew.Assign"
	actor := requestdata.GetActor(ctx)
	if err := authz.Require(authz.Request{
		Actor:           actor,
		Action:          authz.ActionCrewManage,
		CrewLeadActorID: in.LeadActorID,
	}); err != nil {
		return nil, err
	}
	if in.ProjectID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id", nil)
	}
	name := strings.TrimSpace(in.CrewName)
	if name == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing crew name", nil)
	}
	shift := strings.TrimSpace(in.Shift)
	if shift == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing shift", nil)
	}
	if in.Date.IsZero() {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing date", nil)
	}
	if in.CrewSize <= 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "crew size must be positive", nil)
	}
	if in.LeadActorID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing lead actor", nil)
	}

	created := &types.CrewAssignment{
		ID:          uuid.New(),
		ProjectID:   in.ProjectID,
		CrewName:    name,
		Date:        in.Date,
		Shift:       shift,
		CrewSize:    in.CrewSize,
		Zone:        strings.TrimSpace(in.Zone),
		LeadActorID: in.LeadActorID,
		Status:      types.CrewScheduled,
	}

	err := dataagg.ExecuteWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := s.deps.Projects.GetByID(dbc.Ctx, dbc.Tx, in.ProjectID); err != nil {
			return err
		}
		var marks []*types.PieceMark
		if len(in.PieceMarkIDs) > 0 {
			var err error
			marks, err = s.deps.Marks.GetByIDs(dbc.Ctx, dbc.Tx, in.PieceMarkIDs)
			if err != nil {
				return err
			}
			if len(marks) != len(dedupe(in.PieceMarkIDs)) {
				return domainagg.NewError(domainagg.CodeNotFound, op, "one or more piece marks not found", nil)
			}
			for _, m := range marks {
				if m.ProjectID != in.ProjectID {
					return domainagg.NewError(domainagg.CodeValidation, op,
						fmt.Sprintf("piece mark %q belongs to another project", m.Mark), nil)
				}
			}
		}
		if _, err := s.deps.Crews.Create(dbc.Ctx, dbc.Tx, []*types.CrewAssignment{created}); err != nil {
			return err
		}
		if len(marks) > 0 {
			if err := s.deps.Crews.ReplacePieceMarks(dbc.Ctx, dbc.Tx, created, marks); err != nil {
				return err
			}
		}
		_, err := s.deps.Activity.Append(dbc.Ctx, dbc.Tx, []*types.ActivityLogEntry{{
			ID:          uuid.New(),
			ProjectID:   in.ProjectID,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
			SubjectType: types.SubjectCrew,
			SubjectID:   created.ID,
			Kind:        types.KindCrewAssigned,
			After:       types.Snapshot(created),
		}})
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.deps.Notifier != nil {
		s.deps.Notifier.CrewUpdated(created.ProjectID, created, types.KindCrewAssigned)
	}
	return created, nil
}

func (s *crewService) UpdateStatus(ctx context.Context, in CrewStatusInput) (*types.CrewAssignment, error) {
	const op = "Tracking.Crew.UpdateStatus"
	actor := requestdata.GetActor(ctx)
	if in.CrewID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing crew id", nil)
	}
	if !in.Status.Valid() {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown crew status %q", in.Status), nil)
	}

	var updated *types.CrewAssignment
	err := dataagg.ExecuteWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		crew, err := s.deps.Crews.GetByID(dbc.Ctx, dbc.Tx, in.CrewID)
		if err != nil {
			return err
		}
		if err := authz.Require(authz.Request{
			Actor:           actor,
			Action:          authz.ActionCrewManage,
			CrewLeadActorID: crew.LeadActorID,
		}); err != nil {
			return err
		}
		if err := tracking.ValidateCrewChange(crew.Status, in.Status); err != nil {
			return err
		}

		before := *crew
		next := *crew
		next.Status = in.Status
		if err := s.deps.Crews.UpdateStatus(dbc.Ctx, dbc.Tx, crew.ID, in.Status); err != nil {
			return err
		}
		if _, err := s.deps.Activity.Append(dbc.Ctx, dbc.Tx, []*types.ActivityLogEntry{{
			ID:          uuid.New(),
			ProjectID:   crew.ProjectID,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
			SubjectType: types.SubjectCrew,
			SubjectID:   crew.ID,
			Kind:        types.KindCrewStatusChange,
			Before:      types.Snapshot(&before),
			After:       types.Snapshot(&next),
		}}); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.deps.Notifier != nil {
		s.deps.Notifier.CrewUpdated(updated.ProjectID, updated, types.KindCrewStatusChange)
	}
	return updated, nil
}

func (s *crewService) Get(ctx context.Context, id uuid.UUID) (*types.CrewAssignment, error) {
	const op = "Tracking.Crew.Get"
	if id == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing crew id", nil)
	}
	crew, err := s.deps.Crews.GetByID(ctx, nil, id)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return crew, nil
}

func (s *crewService) List(ctx context.Context, projectID uuid.UUID) ([]*types.CrewAssignment, error) {
	const op = "Tracking.Crew.List"
	if projectID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id", nil)
	}
	crews, err := s.deps.Crews.ListByProject(ctx, nil, projectID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return crews, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
