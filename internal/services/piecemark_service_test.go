package services_test

import (
	"testing"

	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	domainagg "github.com/ironpoint/steeltrack-backend/internal/domain/aggregates"
	"github.com/ironpoint/steeltrack-backend/internal/domain/identity"
	"github.com/ironpoint/steeltrack-backend/internal/services"
)

func TestPieceMarkCreateDerivesTotalWeight(t *testing.T) {
	h := newHarness(t)
	ctx, _ := asActor(identity.RoleProjectManager)

	pm, err := h.marks.Create(ctx, services.CreatePieceMarkInput{
		ProjectID:     h.projectID,
		Mark:          "B-101",
		Quantity:      6,
		WeightPerUnit: 122.5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if pm.TotalWeight != 6*122.5 {
		t.Fatalf("total weight: want=%v got=%v", 6*122.5, pm.TotalWeight)
	}
	if pm.Status != types.StatusNotStarted {
		t.Fatalf("new mark status: want=%s got=%s", types.StatusNotStarted, pm.Status)
	}
	if got := h.auditCount(t); got != 1 {
		t.Fatalf("audit entries after create: want=1 got=%d", got)
	}
	if h.emitter.count() != 1 {
		t.Fatalf("expected one broadcast, got %d", h.emitter.count())
	}
}

func TestPieceMarkCreateRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	ctx, _ := asActor(identity.RoleAdmin)

	_, err := h.marks.Create(ctx, services.CreatePieceMarkInput{
		ProjectID:     h.projectID,
		Mark:          "B-101",
		Quantity:      0,
		WeightPerUnit: 10,
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("zero quantity: want validation, got %v", err)
	}

	clientCtx, _ := asActor(identity.RoleClient)
	_, err = h.marks.Create(clientCtx, services.CreatePieceMarkInput{
		ProjectID:     h.projectID,
		Mark:          "B-102",
		Quantity:      1,
		WeightPerUnit: 10,
	})
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("client create: want forbidden, got %v", err)
	}
	if got := h.auditCount(t); got != 0 {
		t.Fatalf("rejected mutations must write no audit entries, got %d", got)
	}
}

func TestPieceMarkFullLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx, _ := asActor(identity.RoleAdmin)
	pm := h.createMark(t, ctx, "C-200", 2)

	want := []types.Status{
		types.StatusFabricating,
		types.StatusCompleted,
		types.StatusShipped,
		types.StatusInstalled,
	}
	version := pm.Version
	for _, expected := range want {
		next, err := h.marks.AdvanceStatus(ctx, services.StatusChangeInput{
			PieceMarkID:     pm.ID,
			ExpectedVersion: version,
		})
		if err != nil {
			t.Fatalf("advance to %s: %v", expected, err)
		}
		if next.Status != expected {
			t.Fatalf("advance: want=%s got=%s", expected, next.Status)
		}
		if next.Version != version+1 {
			t.Fatalf("version after advance: want=%d got=%d", version+1, next.Version)
		}
		version = next.Version
	}

	// installed forces the location and locks it
	got, err := h.marks.Get(ctx, pm.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Location == nil || *got.Location != types.LocationInstalled {
		t.Fatalf("installed mark location: want=%s got=%v", types.LocationInstalled, got.Location)
	}

	_, err = h.marks.AdvanceStatus(ctx, services.StatusChangeInput{PieceMarkID: pm.ID, ExpectedVersion: version})
	if !domainagg.IsCode(err, domainagg.CodeInvalidTransition) {
		t.Fatalf("advance past installed: want invalid_transition, got %v", err)
	}

	_, err = h.marks.UpdateLocation(ctx, services.UpdateLocationInput{
		PieceMarkID:     pm.ID,
		Location:        types.LocationYard,
		ExpectedVersion: version,
	})
	if !domainagg.IsCode(err, domainagg.CodeLocationLocked) {
		t.Fatalf("location after install: want location_locked_after_install, got %v", err)
	}

	// create + 4 advances, rejections add nothing
	if got := h.auditCount(t); got != 5 {
		t.Fatalf("audit entries: want=5 got=%d", got)
	}
}

func TestPieceMarkStaleVersionConflicts(t *testing.T) {
	h := newHarness(t)
	ctx, _ := asActor(identity.RoleAdmin)
	pm := h.createMark(t, ctx, "B-300", 1)

	if _, err := h.marks.AdvanceStatus(ctx, services.StatusChangeInput{
		PieceMarkID:     pm.ID,
		ExpectedVersion: pm.Version,
	}); err != nil {
		t.Fatalf("first advance: %v", err)
	}

	// replaying the same version loses the optimistic lock
	_, err := h.marks.AdvanceStatus(ctx, services.StatusChangeInput{
		PieceMarkID:     pm.ID,
		ExpectedVersion: pm.Version,
	})
	if !domainagg.IsCode(err, domainagg.CodeConcurrentModification) {
		t.Fatalf("stale version: want concurrent_modification, got %v", err)
	}

	got, err := h.marks.Get(ctx, pm.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != types.StatusFabricating {
		t.Fatalf("loser must not mutate state, status=%s", got.Status)
	}
}

func TestShopAdvanceAndRollbackOwnership(t *testing.T) {
	h := newHarness(t)
	pmCtx, _ := asActor(identity.RoleProjectManager)
	pm := h.createMark(t, pmCtx, "S-10", 1)

	shopCtx, shop := asActor(identity.RoleShop)
	advanced, err := h.marks.AdvanceStatus(shopCtx, services.StatusChangeInput{
		PieceMarkID:     pm.ID,
		ExpectedVersion: pm.Version,
	})
	if err != nil {
		t.Fatalf("shop advance within fabrication: %v", err)
	}

	// a different shop actor cannot undo someone else's advance
	otherShopCtx, _ := asActor(identity.RoleShop)
	_, err = h.marks.RollbackStatus(otherShopCtx, services.StatusChangeInput{
		PieceMarkID:     advanced.ID,
		ExpectedVersion: advanced.Version,
	})
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("foreign shop rollback: want forbidden, got %v", err)
	}

	rolled, err := h.marks.RollbackStatus(withActor(shop), services.StatusChangeInput{
		PieceMarkID:     advanced.ID,
		ExpectedVersion: advanced.Version,
	})
	if err != nil {
		t.Fatalf("own rollback: %v", err)
	}
	if rolled.Status != types.StatusNotStarted {
		t.Fatalf("rollback status: want=%s got=%s", types.StatusNotStarted, rolled.Status)
	}

	// shop cannot advance beyond the fabrication window
	fab, err := h.marks.AdvanceStatus(pmCtx, services.StatusChangeInput{
		PieceMarkID:     rolled.ID,
		ExpectedVersion: rolled.Version,
	})
	if err != nil {
		t.Fatalf("pm advance: %v", err)
	}
	completed, err := h.marks.AdvanceStatus(pmCtx, services.StatusChangeInput{
		PieceMarkID:     fab.ID,
		ExpectedVersion: fab.Version,
	})
	if err != nil {
		t.Fatalf("pm advance to completed: %v", err)
	}
	_, err = h.marks.AdvanceStatus(shopCtx, services.StatusChangeInput{
		PieceMarkID:     completed.ID,
		ExpectedVersion: completed.Version,
	})
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("shop advance past fabrication: want forbidden, got %v", err)
	}
}

func TestFieldLocationRules(t *testing.T) {
	h := newHarness(t)
	adminCtx, _ := asActor(identity.RoleAdmin)
	pm := h.createMark(t, adminCtx, "F-1", 1)

	fieldCtx, _ := asActor(identity.RoleField)
	_, err := h.marks.UpdateLocation(fieldCtx, services.UpdateLocationInput{
		PieceMarkID:     pm.ID,
		Location:        types.LocationYard,
		ExpectedVersion: pm.Version,
	})
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("field location before shipped: want forbidden, got %v", err)
	}

	cur := pm
	for i := 0; i < 3; i++ {
		next, err := h.marks.AdvanceStatus(adminCtx, services.StatusChangeInput{
			PieceMarkID:     cur.ID,
			ExpectedVersion: cur.Version,
		})
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		cur = next
	}
	if cur.Status != types.StatusShipped {
		t.Fatalf("setup: want shipped, got %s", cur.Status)
	}

	moved, err := h.marks.UpdateLocation(fieldCtx, services.UpdateLocationInput{
		PieceMarkID:     cur.ID,
		Location:        types.LocationCraneZone,
		ExpectedVersion: cur.Version,
	})
	if err != nil {
		t.Fatalf("field location while shipped: %v", err)
	}
	if moved.Location == nil || *moved.Location != types.LocationCraneZone {
		t.Fatalf("location: want=%s got=%v", types.LocationCraneZone, moved.Location)
	}

	clientCtx, _ := asActor(identity.RoleClient)
	_, err = h.marks.UpdateLocation(clientCtx, services.UpdateLocationInput{
		PieceMarkID:     moved.ID,
		Location:        types.LocationStaging,
		ExpectedVersion: moved.Version,
	})
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("client location update: want forbidden, got %v", err)
	}
}
