package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ironpoint/steeltrack-backend/internal/authz"
	dataagg "github.com/ironpoint/steeltrack-backend/internal/data/aggregates"
	"github.com/ironpoint/steeltrack-backend/internal/data/repos"
	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	domainagg "github.com/ironpoint/steeltrack-backend/internal/domain/aggregates"
	"github.com/ironpoint/steeltrack-backend/internal/domain/identity"
	"github.com/ironpoint/steeltrack-backend/internal/domain/tracking"
	"github.com/ironpoint/steeltrack-backend/internal/platform/dbctx"
	"github.com/ironpoint/steeltrack-backend/internal/requestdata"
)

type CreatePieceMarkInput struct {
	ProjectID      uuid.UUID
	Mark           string
	Quantity       int
	WeightPerUnit  float64
	Material       string
	DrawingRef     string
	SequenceNumber int
}

type StatusChangeInput struct {
	PieceMarkID     uuid.UUID
	ExpectedVersion int
	Note            string
}

type UpdateLocationInput struct {
	PieceMarkID     uuid.UUID
	Location        types.Location
	ExpectedVersion int
	Note            string
}

type PieceMarkService interface {
	Create(ctx context.Context, in CreatePieceMarkInput) (*types.PieceMark, error)
	AdvanceStatus(ctx context.Context, in StatusChangeInput) (*types.PieceMark, error)
	RollbackStatus(ctx context.Context, in StatusChangeInput) (*types.PieceMark, error)
	UpdateLocation(ctx context.Context, in UpdateLocationInput) (*types.PieceMark, error)
	Get(ctx context.Context, id uuid.UUID) (*types.PieceMark, error)
	List(ctx context.Context, q repos.PieceMarkQuery) ([]*types.PieceMark, error)
}

type PieceMarkServiceDeps struct {
	Base     dataagg.BaseDeps
	Projects repos.ProjectRepo
	Marks    repos.PieceMarkRepo
	Activity repos.ActivityLogRepo
	Notifier TrackingNotifier
}

type pieceMarkService struct {
	deps PieceMarkServiceDeps
}

func NewPieceMarkService(deps PieceMarkServiceDeps) PieceMarkService {
	deps.Base = deps.Base.WithDefaults()
	return &pieceMarkService{deps: deps}
}

func (s *pieceMarkService) Create(ctx context.Context, in CreatePieceMarkInput) (*types.PieceMark, error) {
	const op = "Tracking.PieceMark.Create"
	actor := requestdata.GetActor(ctx)
	if err := authz.Require(authz.Request{Actor: actor, Action: authz.ActionPieceMarkCreate}); err != nil {
		return nil, err
	}
	if in.ProjectID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id", nil)
	}
	mark := strings.TrimSpace(in.Mark)
	if mark == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing mark", nil)
	}
	if in.Quantity <= 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "quantity must be positive", nil)
	}
	if in.WeightPerUnit < 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "weight_per_unit must be non-negative", nil)
	}

	created := &types.PieceMark{
		ID:             uuid.New(),
		ProjectID:      in.ProjectID,
		Mark:           mark,
		Quantity:       in.Quantity,
		WeightPerUnit:  in.WeightPerUnit,
		Material:       strings.TrimSpace(in.Material),
		DrawingRef:     strings.TrimSpace(in.DrawingRef),
		SequenceNumber: in.SequenceNumber,
		Status:         types.StatusNotStarted,
	}
	created.ComputeTotalWeight()

	err := dataagg.ExecuteWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := s.deps.Projects.GetByID(dbc.Ctx, dbc.Tx, in.ProjectID); err != nil {
			return err
		}
		if _, err := s.deps.Marks.Create(dbc.Ctx, dbc.Tx, []*types.PieceMark{created}); err != nil {
			return err
		}
		_, err := s.deps.Activity.Append(dbc.Ctx, dbc.Tx, []*types.ActivityLogEntry{{
			ID:          uuid.New(),
			ProjectID:   in.ProjectID,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
			SubjectType: types.SubjectPieceMark,
			SubjectID:   created.ID,
			Kind:        types.KindPieceMarkCreated,
			After:       types.Snapshot(created),
		}})
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.deps.Notifier != nil {
		s.deps.Notifier.PieceMarkCreated(created.ProjectID, created)
	}
	return created, nil
}

func (s *pieceMarkService) AdvanceStatus(ctx context.Context, in StatusChangeInput) (*types.PieceMark, error) {
	const op = "Tracking.PieceMark.AdvanceStatus"
	return s.changeStatus(ctx, op, in, tracking.StatusChangeAdvance)
}

func (s *pieceMarkService) RollbackStatus(ctx context.Context, in StatusChangeInput) (*types.PieceMark, error) {
	const op = "Tracking.PieceMark.RollbackStatus"
	return s.changeStatus(ctx, op, in, tracking.StatusChangeRollback)
}

func (s *pieceMarkService) changeStatus(ctx context.Context, op string, in StatusChangeInput, change tracking.StatusChange) (*types.PieceMark, error) {
	actor := requestdata.GetActor(ctx)
	if in.PieceMarkID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing piece_mark id", nil)
	}
	if in.ExpectedVersion < 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing expected version", nil)
	}

	var updated *types.PieceMark
	err := dataagg.ExecuteWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		mark, err := s.deps.Marks.GetByID(dbc.Ctx, dbc.Tx, in.PieceMarkID)
		if err != nil {
			return err
		}

		var to types.Status
		var ok bool
		if change == tracking.StatusChangeAdvance {
			to, ok = tracking.NextStatus(mark.Status)
			if !ok {
				return domainagg.NewError(domainagg.CodeInvalidTransition, op,
					fmt.Sprintf("status %q has no successor", mark.Status), nil)
			}
		} else {
			to, ok = tracking.PrevStatus(mark.Status)
			if !ok {
				return domainagg.NewError(domainagg.CodeInvalidTransition, op,
					fmt.Sprintf("status %q has no predecessor", mark.Status), nil)
			}
		}
		if _, err := tracking.ValidateStatusChange(mark.Status, to); err != nil {
			return err
		}

		req := authz.Request{Actor: actor, Status: mark.Status}
		if change == tracking.StatusChangeAdvance {
			req.Action = authz.ActionStatusAdvance
		} else {
			req.Action = authz.ActionStatusRollback
			// Shop rollback is limited to undoing the actor's own advance;
			// the latest advance entry identifies whose action it was.
			if actor.Role == identity.RoleShop {
				last, err := s.deps.Activity.LatestBySubjectKind(dbc.Ctx, dbc.Tx,
					types.SubjectPieceMark, mark.ID, types.KindStatusAdvance)
				if err != nil {
					return err
				}
				if last != nil {
					req.LastAdvanceActorID = last.ActorID
				}
			}
		}
		if err := authz.Require(req); err != nil {
			return err
		}

		before := *mark
		next := *mark
		next.Status = to
		next.Version = in.ExpectedVersion + 1
		updates := map[string]any{"status": to}
		switch {
		case to == types.StatusInstalled:
			loc := types.LocationInstalled
			next.Location = &loc
			updates["location"] = loc
		case to.Ordinal() < types.StatusShipped.Ordinal():
			// Rolling back below shipped: there is nothing in the field.
			next.Location = nil
			updates["location"] = nil
		}

		ok, err = s.deps.Base.CASGuard.UpdateByVersion(dbc, "piece_mark", mark.ID, in.ExpectedVersion, updates)
		if err != nil {
			return err
		}
		if err := dataagg.RequireCASSuccess(ok, "piece mark changed while transitioning"); err != nil {
			return err
		}

		kind := types.KindStatusAdvance
		if change == tracking.StatusChangeRollback {
			kind = types.KindStatusRollback
		}
		if _, err := s.deps.Activity.Append(dbc.Ctx, dbc.Tx, []*types.ActivityLogEntry{{
			ID:          uuid.New(),
			ProjectID:   mark.ProjectID,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
			SubjectType: types.SubjectPieceMark,
			SubjectID:   mark.ID,
			Kind:        kind,
			Before:      types.Snapshot(&before),
			After:       types.Snapshot(&next),
			Note:        strings.TrimSpace(in.Note),
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
		s.deps.Notifier.PieceMarkStatusChanged(updated.ProjectID, updated, string(change))
	}
	return updated, nil
}

func (s *pieceMarkService) UpdateLocation(ctx context.Context, in UpdateLocationInput) (*types.PieceMark, error) {
	const op = "Tracking.PieceMark.UpdateLocation"
	actor := requestdata.GetActor(ctx)
	if in.PieceMarkID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing piece_mark id", nil)
	}
	if in.ExpectedVersion < 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing expected version", nil)
	}

	var updated *types.PieceMark
	err := dataagg.ExecuteWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		mark, err := s.deps.Marks.GetByID(dbc.Ctx, dbc.Tx, in.PieceMarkID)
		if err != nil {
			return err
		}
		if err := authz.Require(authz.Request{
			Actor:  actor,
			Action: authz.ActionLocationUpdate,
			Status: mark.Status,
		}); err != nil {
			return err
		}
		if err := tracking.ValidateLocationChange(mark.Status, in.Location); err != nil {
			return err
		}

		before := *mark
		next := *mark
		loc := in.Location
		next.Location = &loc
		next.Version = in.ExpectedVersion + 1

		ok, err := s.deps.Base.CASGuard.UpdateByVersion(dbc, "piece_mark", mark.ID, in.ExpectedVersion, map[string]any{
			"location": loc,
		})
		if err != nil {
			return err
		}
		if err := dataagg.RequireCASSuccess(ok, "piece mark changed while updating location"); err != nil {
			return err
		}

		if _, err := s.deps.Activity.Append(dbc.Ctx, dbc.Tx, []*types.ActivityLogEntry{{
			ID:          uuid.New(),
			ProjectID:   mark.ProjectID,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
			SubjectType: types.SubjectPieceMark,
			SubjectID:   mark.ID,
			Kind:        types.KindLocationUpdate,
			Before:      types.Snapshot(&before),
			After:       types.Snapshot(&next),
			Note:        strings.TrimSpace(in.Note),
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
		s.deps.Notifier.PieceMarkLocationChanged(updated.ProjectID, updated)
	}
	return updated, nil
}

func (s *pieceMarkService) Get(ctx context.Context, id uuid.UUID) (*types.PieceMark, error) {
	const op = "Tracking.PieceMark.Get"
	if id == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing piece_mark id", nil)
	}
	mark, err := s.deps.Marks.GetByID(ctx, nil, id)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return mark, nil
}

func (s *pieceMarkService) List(ctx context.Context, q repos.PieceMarkQuery) ([]*types.PieceMark, error) {
	const op = "Tracking.PieceMark.List"
	if q.ProjectID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id", nil)
	}
	for _, st := range q.Statuses {
		if !st.Valid() {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown status %q", st), nil)
		}
	}
	for _, loc := range q.Locations {
		if !loc.Valid() {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown location %q", loc), nil)
		}
	}
	marks, err := s.deps.Marks.List(ctx, nil, q)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return marks, nil
}
