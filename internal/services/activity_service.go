package services

import (
	"context"

	"github.com/google/uuid"

	dataagg "github.com/ironpoint/steeltrack-backend/internal/data/aggregates"
	"github.com/ironpoint/steeltrack-backend/internal/data/repos"
	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	domainagg "github.com/ironpoint/steeltrack-backend/internal/domain/aggregates"
)

// ActivityService is the read surface over the audit log. Every role may
// read it; the log is how dashboards and progress reports are reconstructed.
type ActivityService interface {
	List(ctx context.Context, q repos.ActivityQuery) ([]*types.ActivityLogEntry, error)
}

type ActivityServiceDeps struct {
	Activity repos.ActivityLogRepo
}

type activityService struct {
	deps ActivityServiceDeps
}

func NewActivityService(deps ActivityServiceDeps) ActivityService {
	return &activityService{deps: deps}
}

func (s *activityService) List(ctx context.Context, q repos.ActivityQuery) ([]*types.ActivityLogEntry, error) {
	const op = "Tracking.Activity.List"
	if q.ProjectID == uuid.Nil && q.SubjectID == uuid.Nil && q.ActorID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op,
			"query requires a project, subject or actor filter", nil)
	}
	entries, err := s.deps.Activity.List(ctx, nil, q)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return entries, nil
}
