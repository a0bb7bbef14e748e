package services_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ironpoint/steeltrack-backend/internal/data/repos"
	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	domainagg "github.com/ironpoint/steeltrack-backend/internal/domain/aggregates"
	"github.com/ironpoint/steeltrack-backend/internal/domain/identity"
	"github.com/ironpoint/steeltrack-backend/internal/services"
)

func TestCrewAssignOwnershipRules(t *testing.T) {
	h := newHarness(t)
	pmCtx, _ := asActor(identity.RoleProjectManager)
	leadCtx, lead := asActor(identity.RoleField)

	beam := h.createMark(t, pmCtx, "B-1", 4)
	girt := h.createMark(t, pmCtx, "G-1", 8)

	// a field lead may schedule a crew they lead themselves
	crew, err := h.crews.Assign(leadCtx, services.AssignCrewInput{
		ProjectID:    h.projectID,
		CrewName:     "Ironworkers A",
		Date:         time.Now().AddDate(0, 0, 1),
		Shift:        "day",
		CrewSize:     5,
		Zone:         "north bay",
		LeadActorID:  lead.ID,
		PieceMarkIDs: []uuid.UUID{beam.ID, girt.ID, beam.ID},
	})
	if err != nil {
		t.Fatalf("lead assign: %v", err)
	}
	if crew.Status != types.CrewScheduled {
		t.Fatalf("new crew status: %s", crew.Status)
	}

	got, err := h.crews.Get(leadCtx, crew.ID)
	if err != nil {
		t.Fatalf("get crew: %v", err)
	}
	if got.LeadActorID != lead.ID {
		t.Fatalf("lead actor: want=%s got=%s", lead.ID, got.LeadActorID)
	}

	// but not a crew led by somebody else
	otherCtx, _ := asActor(identity.RoleField)
	_, err = h.crews.Assign(otherCtx, services.AssignCrewInput{
		ProjectID:   h.projectID,
		CrewName:    "Ironworkers B",
		Date:        time.Now().AddDate(0, 0, 1),
		Shift:       "day",
		CrewSize:    3,
		LeadActorID: lead.ID,
	})
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("field assigning foreign crew: want forbidden, got %v", err)
	}

	// unknown piece marks fail the whole assignment
	_, err = h.crews.Assign(pmCtx, services.AssignCrewInput{
		ProjectID:    h.projectID,
		CrewName:     "Ironworkers C",
		Date:         time.Now().AddDate(0, 0, 2),
		Shift:        "night",
		CrewSize:     4,
		LeadActorID:  lead.ID,
		PieceMarkIDs: []uuid.UUID{beam.ID, uuid.New()},
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("assign with unknown mark: want not_found, got %v", err)
	}
}

func TestCrewStatusProgression(t *testing.T) {
	h := newHarness(t)
	pmCtx, _ := asActor(identity.RoleProjectManager)
	leadCtx, lead := asActor(identity.RoleField)

	crew, err := h.crews.Assign(pmCtx, services.AssignCrewInput{
		ProjectID:   h.projectID,
		CrewName:    "Bolting crew",
		Date:        time.Now(),
		Shift:       "day",
		CrewSize:    2,
		LeadActorID: lead.ID,
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	// scheduled crews cannot complete without going active
	_, err = h.crews.UpdateStatus(leadCtx, services.CrewStatusInput{CrewID: crew.ID, Status: types.CrewCompleted})
	if !domainagg.IsCode(err, domainagg.CodeInvalidTransition) {
		t.Fatalf("scheduled -> completed: want invalid_transition, got %v", err)
	}

	active, err := h.crews.UpdateStatus(leadCtx, services.CrewStatusInput{CrewID: crew.ID, Status: types.CrewActive})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if active.Status != types.CrewActive {
		t.Fatalf("status after activate: %s", active.Status)
	}

	// a field actor who does not lead the crew cannot drive it
	otherCtx, _ := asActor(identity.RoleField)
	_, err = h.crews.UpdateStatus(otherCtx, services.CrewStatusInput{CrewID: crew.ID, Status: types.CrewCompleted})
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("foreign field status change: want forbidden, got %v", err)
	}

	done, err := h.crews.UpdateStatus(pmCtx, services.CrewStatusInput{CrewID: crew.ID, Status: types.CrewCompleted})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != types.CrewCompleted {
		t.Fatalf("status after complete: %s", done.Status)
	}
}

func TestActivityListFilters(t *testing.T) {
	h := newHarness(t)
	ctx, pm := asActor(identity.RoleProjectManager)

	beam := h.createMark(t, ctx, "B-1", 4)
	if _, err := h.marks.AdvanceStatus(ctx, services.StatusChangeInput{
		PieceMarkID:     beam.ID,
		ExpectedVersion: beam.Version,
	}); err != nil {
		t.Fatalf("advance: %v", err)
	}

	if _, err := h.activity.List(ctx, repos.ActivityQuery{}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("unfiltered list: want validation error")
	}

	bySubject, err := h.activity.List(ctx, repos.ActivityQuery{
		SubjectType: types.SubjectPieceMark,
		SubjectID:   beam.ID,
	})
	if err != nil {
		t.Fatalf("list by subject: %v", err)
	}
	if len(bySubject) != 2 {
		t.Fatalf("subject entries: want=2 got=%d", len(bySubject))
	}
	if bySubject[0].Kind != types.KindPieceMarkCreated || bySubject[1].Kind != types.KindStatusAdvance {
		t.Fatalf("entry order: %s, %s", bySubject[0].Kind, bySubject[1].Kind)
	}

	byActor, err := h.activity.List(ctx, repos.ActivityQuery{ActorID: pm.ID})
	if err != nil {
		t.Fatalf("list by actor: %v", err)
	}
	if len(byActor) != 2 {
		t.Fatalf("actor entries: want=2 got=%d", len(byActor))
	}

	byProject, err := h.activity.List(ctx, repos.ActivityQuery{
		ProjectID: h.projectID,
		From:      time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("list by window: %v", err)
	}
	if len(byProject) != 0 {
		t.Fatalf("future window must be empty, got %d entries", len(byProject))
	}
}
