package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dataagg "github.com/ironpoint/steeltrack-backend/internal/data/aggregates"
	"github.com/ironpoint/steeltrack-backend/internal/data/repos"
	"github.com/ironpoint/steeltrack-backend/internal/data/repos/testutil"
	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	"github.com/ironpoint/steeltrack-backend/internal/domain/identity"
	"github.com/ironpoint/steeltrack-backend/internal/domain/project"
	"github.com/ironpoint/steeltrack-backend/internal/realtime"
	"github.com/ironpoint/steeltrack-backend/internal/requestdata"
	"github.com/ironpoint/steeltrack-backend/internal/services"
)

// recordingEmitter captures broadcast messages for assertions.
type recordingEmitter struct {
	mu       sync.Mutex
	messages []realtime.SSEMessage
}

func (e *recordingEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	e.messages = append(e.messages, msg)
	e.mu.Unlock()
}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.messages)
}

type harness struct {
	db        *gorm.DB
	emitter   *recordingEmitter
	marks     services.PieceMarkService
	delivery  services.DeliveryService
	crews     services.CrewService
	activity  services.ActivityService
	projectID uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	p := &project.Project{ID: uuid.New(), Name: "Mill Expansion", JobNumber: uuid.NewString()}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}

	base := dataagg.BaseDeps{DB: db, Log: log}
	projectRepo := repos.NewProjectRepo(db, log)
	markRepo := repos.NewPieceMarkRepo(db, log)
	deliveryRepo := repos.NewDeliveryRepo(db, log)
	itemRepo := repos.NewDeliveryItemRepo(db, log)
	crewRepo := repos.NewCrewAssignmentRepo(db, log)
	activityRepo := repos.NewActivityLogRepo(db, log)

	emitter := &recordingEmitter{}
	notifier := services.NewTrackingNotifier(emitter, nil)

	return &harness{
		db:      db,
		emitter: emitter,
		marks: services.NewPieceMarkService(services.PieceMarkServiceDeps{
			Base:     base,
			Projects: projectRepo,
			Marks:    markRepo,
			Activity: activityRepo,
			Notifier: notifier,
		}),
		delivery: services.NewDeliveryService(services.DeliveryServiceDeps{
			Base:       base,
			Projects:   projectRepo,
			Deliveries: deliveryRepo,
			Items:      itemRepo,
			Marks:      markRepo,
			Activity:   activityRepo,
			Notifier:   notifier,
		}),
		crews: services.NewCrewService(services.CrewServiceDeps{
			Base:     base,
			Projects: projectRepo,
			Crews:    crewRepo,
			Marks:    markRepo,
			Activity: activityRepo,
			Notifier: notifier,
		}),
		activity: services.NewActivityService(services.ActivityServiceDeps{
			Activity: activityRepo,
		}),
		projectID: p.ID,
	}
}

func asActor(role identity.Role) (context.Context, identity.Actor) {
	actor := identity.Actor{ID: uuid.New(), Role: role}
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{Actor: actor})
	return ctx, actor
}

func withActor(actor identity.Actor) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{Actor: actor})
}

func (h *harness) auditCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := h.db.Model(&types.ActivityLogEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count audit entries: %v", err)
	}
	return count
}

func (h *harness) createMark(t *testing.T, ctx context.Context, mark string, quantity int) *types.PieceMark {
	t.Helper()
	pm, err := h.marks.Create(ctx, services.CreatePieceMarkInput{
		ProjectID:     h.projectID,
		Mark:          mark,
		Quantity:      quantity,
		WeightPerUnit: 80,
	})
	if err != nil {
		t.Fatalf("create mark %s: %v", mark, err)
	}
	return pm
}
