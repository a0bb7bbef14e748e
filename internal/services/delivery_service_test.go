package services_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	domainagg "github.com/ironpoint/steeltrack-backend/internal/domain/aggregates"
	"github.com/ironpoint/steeltrack-backend/internal/domain/identity"
	"github.com/ironpoint/steeltrack-backend/internal/services"
)

// stageDelivery builds a delivered load carrying the given marks, one item
// per mark with the mark's full quantity expected.
func stageDelivery(t *testing.T, h *harness, marks ...*types.PieceMark) (*types.Delivery, map[uuid.UUID]uuid.UUID) {
	t.Helper()
	ctx, _ := asActor(identity.RoleProjectManager)

	d, err := h.delivery.Create(ctx, services.CreateDeliveryInput{
		ProjectID:     h.projectID,
		Number:        "D-" + uuid.NewString()[:8],
		ScheduledDate: time.Now(),
		Carrier:       "Hulcher",
	})
	if err != nil {
		t.Fatalf("create delivery: %v", err)
	}

	itemByMark := make(map[uuid.UUID]uuid.UUID, len(marks))
	version := d.Version
	for _, pm := range marks {
		item, err := h.delivery.AddItem(ctx, services.AddDeliveryItemInput{
			DeliveryID:       d.ID,
			PieceMarkID:      pm.ID,
			ExpectedQuantity: pm.Quantity - pm.ReceivedQuantity,
			ExpectedVersion:  version,
		})
		if err != nil {
			t.Fatalf("add item for %s: %v", pm.Mark, err)
		}
		itemByMark[pm.ID] = item.ID
		version++
	}

	d, err = h.delivery.Dispatch(ctx, services.DeliveryTransitionInput{DeliveryID: d.ID, ExpectedVersion: version})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	d, err = h.delivery.Arrive(ctx, services.DeliveryTransitionInput{DeliveryID: d.ID, ExpectedVersion: d.Version})
	if err != nil {
		t.Fatalf("arrive: %v", err)
	}
	if d.Status != types.DeliveryDelivered {
		t.Fatalf("staging: want delivered, got %s", d.Status)
	}
	return d, itemByMark
}

// stageLoad is stageDelivery for a single mark with an explicit expected
// quantity, for loads that deliberately carry part of a mark.
func stageLoad(t *testing.T, h *harness, pm *types.PieceMark, expected int) (*types.Delivery, uuid.UUID) {
	t.Helper()
	ctx, _ := asActor(identity.RoleProjectManager)

	d, err := h.delivery.Create(ctx, services.CreateDeliveryInput{
		ProjectID:     h.projectID,
		Number:        "D-" + uuid.NewString()[:8],
		ScheduledDate: time.Now(),
		Carrier:       "Hulcher",
	})
	if err != nil {
		t.Fatalf("create delivery: %v", err)
	}
	item, err := h.delivery.AddItem(ctx, services.AddDeliveryItemInput{
		DeliveryID:       d.ID,
		PieceMarkID:      pm.ID,
		ExpectedQuantity: expected,
		ExpectedVersion:  d.Version,
	})
	if err != nil {
		t.Fatalf("add item for %s: %v", pm.Mark, err)
	}
	d, err = h.delivery.Dispatch(ctx, services.DeliveryTransitionInput{DeliveryID: d.ID, ExpectedVersion: d.Version + 1})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	d, err = h.delivery.Arrive(ctx, services.DeliveryTransitionInput{DeliveryID: d.ID, ExpectedVersion: d.Version})
	if err != nil {
		t.Fatalf("arrive: %v", err)
	}
	return d, item.ID
}

func TestDeliveryReconcileCleanReceipt(t *testing.T) {
	h := newHarness(t)
	ctx, _ := asActor(identity.RoleField)
	pmCtx, _ := asActor(identity.RoleProjectManager)

	beam := h.createMark(t, pmCtx, "B-1", 4)
	column := h.createMark(t, pmCtx, "C-1", 2)
	d, items := stageDelivery(t, h, beam, column)

	got, err := h.delivery.Reconcile(ctx, services.ReconcileDeliveryInput{
		DeliveryID:      d.ID,
		ExpectedVersion: d.Version,
		Outcomes: []services.ItemOutcome{
			{ItemID: items[beam.ID], ReceivedQuantity: 4, Condition: types.ConditionGood, Location: types.LocationYard},
			{ItemID: items[column.ID], ReceivedQuantity: 2, Condition: types.ConditionGood, Location: types.LocationStaging},
		},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got.Status != types.DeliveryReceived {
		t.Fatalf("delivery status: want=%s got=%s", types.DeliveryReceived, got.Status)
	}

	reloaded, err := h.marks.Get(ctx, beam.ID)
	if err != nil {
		t.Fatalf("get beam: %v", err)
	}
	if reloaded.Status != types.StatusShipped {
		t.Fatalf("beam status: want=%s got=%s", types.StatusShipped, reloaded.Status)
	}
	if reloaded.ReceivedQuantity != 4 {
		t.Fatalf("beam received: want=4 got=%d", reloaded.ReceivedQuantity)
	}
	if reloaded.Location == nil || *reloaded.Location != types.LocationYard {
		t.Fatalf("beam location: want=%s got=%v", types.LocationYard, reloaded.Location)
	}
}

func TestDeliveryReconcilePartialSubmissionMutatesNothing(t *testing.T) {
	h := newHarness(t)
	fieldCtx, _ := asActor(identity.RoleField)
	pmCtx, _ := asActor(identity.RoleProjectManager)

	beam := h.createMark(t, pmCtx, "B-1", 4)
	column := h.createMark(t, pmCtx, "C-1", 2)
	d, items := stageDelivery(t, h, beam, column)

	auditBefore := h.auditCount(t)
	_, err := h.delivery.Reconcile(fieldCtx, services.ReconcileDeliveryInput{
		DeliveryID:      d.ID,
		ExpectedVersion: d.Version,
		Outcomes: []services.ItemOutcome{
			{ItemID: items[beam.ID], ReceivedQuantity: 4, Condition: types.ConditionGood, Location: types.LocationYard},
		},
	})
	if !domainagg.IsCode(err, domainagg.CodeIncompleteReconciliation) {
		t.Fatalf("partial reconcile: want incomplete_reconciliation, got %v", err)
	}

	got, err := h.delivery.Get(fieldCtx, d.ID)
	if err != nil {
		t.Fatalf("get delivery: %v", err)
	}
	if got.Status != types.DeliveryDelivered {
		t.Fatalf("delivery must stay delivered, got %s", got.Status)
	}
	reloaded, err := h.marks.Get(fieldCtx, beam.ID)
	if err != nil {
		t.Fatalf("get beam: %v", err)
	}
	if reloaded.ReceivedQuantity != 0 || reloaded.Status != types.StatusNotStarted {
		t.Fatalf("partial reconcile must not touch piece marks: received=%d status=%s",
			reloaded.ReceivedQuantity, reloaded.Status)
	}
	if h.auditCount(t) != auditBefore {
		t.Fatalf("rejected reconcile must write no audit entries")
	}
}

func TestDeliveryReconcileShortfallRecorded(t *testing.T) {
	h := newHarness(t)
	fieldCtx, _ := asActor(identity.RoleField)
	pmCtx, _ := asActor(identity.RoleProjectManager)

	beam := h.createMark(t, pmCtx, "B-1", 4)
	d, items := stageDelivery(t, h, beam)

	if _, err := h.delivery.Reconcile(fieldCtx, services.ReconcileDeliveryInput{
		DeliveryID:      d.ID,
		ExpectedVersion: d.Version,
		Outcomes: []services.ItemOutcome{
			{ItemID: items[beam.ID], ReceivedQuantity: 3, Condition: types.ConditionDamaged, Location: types.LocationYard},
		},
	}); err != nil {
		t.Fatalf("short reconcile: %v", err)
	}

	// short receipt still advances the mark; the discrepancy lives on the
	// audit entry
	reloaded, err := h.marks.Get(fieldCtx, beam.ID)
	if err != nil {
		t.Fatalf("get beam: %v", err)
	}
	if reloaded.Status != types.StatusShipped || reloaded.ReceivedQuantity != 3 {
		t.Fatalf("short receipt: status=%s received=%d", reloaded.Status, reloaded.ReceivedQuantity)
	}
	// no further load is coming for the short pieces, so the mark is placed
	if reloaded.Location == nil || *reloaded.Location != types.LocationYard {
		t.Fatalf("short receipt location: want=%s got=%v", types.LocationYard, reloaded.Location)
	}

	var entries []*types.ActivityLogEntry
	if err := h.db.Where("kind = ?", types.KindItemReconciled).Find(&entries).Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("want one reconcile entry, got %d", len(entries))
	}
	if entries[0].Shortfall == nil || *entries[0].Shortfall != 1 {
		t.Fatalf("shortfall: want=1 got=%v", entries[0].Shortfall)
	}
}

func TestSplitDeliveriesAccumulateAndOverReceiptRejects(t *testing.T) {
	h := newHarness(t)
	fieldCtx, _ := asActor(identity.RoleField)
	pmCtx, _ := asActor(identity.RoleProjectManager)

	beam := h.createMark(t, pmCtx, "B-1", 10)

	first, firstItem := stageLoad(t, h, beam, 6)
	if _, err := h.delivery.Reconcile(fieldCtx, services.ReconcileDeliveryInput{
		DeliveryID:      first.ID,
		ExpectedVersion: first.Version,
		Outcomes: []services.ItemOutcome{
			{ItemID: firstItem, ReceivedQuantity: 6, Condition: types.ConditionGood, Location: types.LocationYard},
		},
	}); err != nil {
		t.Fatalf("first load: %v", err)
	}

	reloaded, err := h.marks.Get(fieldCtx, beam.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.ReceivedQuantity != 6 {
		t.Fatalf("after first load: want=6 got=%d", reloaded.ReceivedQuantity)
	}
	if reloaded.Status != types.StatusShipped {
		t.Fatalf("after first load: want=%s got=%s", types.StatusShipped, reloaded.Status)
	}
	// a partial load never places the mark; location waits for the last one
	if reloaded.Location != nil {
		t.Fatalf("after first load: location must stay unset, got %s", *reloaded.Location)
	}

	second, secondItem := stageLoad(t, h, reloaded, 4)
	_, err = h.delivery.Reconcile(fieldCtx, services.ReconcileDeliveryInput{
		DeliveryID:      second.ID,
		ExpectedVersion: second.Version,
		Outcomes: []services.ItemOutcome{
			{ItemID: secondItem, ReceivedQuantity: 5, Condition: types.ConditionGood, Location: types.LocationYard},
		},
	})
	if !domainagg.IsCode(err, domainagg.CodeOverReceipt) {
		t.Fatalf("cumulative over-receipt: want over_receipt, got %v", err)
	}

	// the rejected load changed nothing
	reloaded, err = h.marks.Get(fieldCtx, beam.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.ReceivedQuantity != 6 {
		t.Fatalf("over-receipt must not mutate, received=%d", reloaded.ReceivedQuantity)
	}
	if reloaded.Location != nil {
		t.Fatalf("over-receipt must not mutate, location=%s", *reloaded.Location)
	}

	got, err := h.delivery.Reconcile(fieldCtx, services.ReconcileDeliveryInput{
		DeliveryID:      second.ID,
		ExpectedVersion: second.Version,
		Outcomes: []services.ItemOutcome{
			{ItemID: secondItem, ReceivedQuantity: 4, Condition: types.ConditionGood, Location: types.LocationYard},
		},
	})
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if got.Status != types.DeliveryReceived {
		t.Fatalf("second load status: %s", got.Status)
	}
	reloaded, err = h.marks.Get(fieldCtx, beam.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.ReceivedQuantity != 10 {
		t.Fatalf("after both loads: want=10 got=%d", reloaded.ReceivedQuantity)
	}
	if reloaded.Location == nil || *reloaded.Location != types.LocationYard {
		t.Fatalf("after both loads: want location=%s got=%v", types.LocationYard, reloaded.Location)
	}
}

func TestDeliveryAddItemGuards(t *testing.T) {
	h := newHarness(t)
	ctx, _ := asActor(identity.RoleProjectManager)

	beam := h.createMark(t, ctx, "B-1", 4)
	first, err := h.delivery.Create(ctx, services.CreateDeliveryInput{
		ProjectID:     h.projectID,
		Number:        "D-100",
		ScheduledDate: time.Now(),
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := h.delivery.AddItem(ctx, services.AddDeliveryItemInput{
		DeliveryID:       first.ID,
		PieceMarkID:      beam.ID,
		ExpectedQuantity: 4,
		ExpectedVersion:  first.Version,
	}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	// promising a mark writes its row, so two concurrent promises on
	// different deliveries collide on the mark's version guard
	promised, err := h.marks.Get(ctx, beam.ID)
	if err != nil {
		t.Fatalf("get mark: %v", err)
	}
	if promised.Version != beam.Version+1 {
		t.Fatalf("mark version after promise: want=%d got=%d", beam.Version+1, promised.Version)
	}

	// a mark with an item on an open delivery cannot be promised again
	second, err := h.delivery.Create(ctx, services.CreateDeliveryInput{
		ProjectID:     h.projectID,
		Number:        "D-101",
		ScheduledDate: time.Now(),
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	_, err = h.delivery.AddItem(ctx, services.AddDeliveryItemInput{
		DeliveryID:       second.ID,
		PieceMarkID:      beam.ID,
		ExpectedQuantity: 4,
		ExpectedVersion:  second.Version,
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("double promise: want validation, got %v", err)
	}

	// items are frozen once the truck leaves
	dispatched, err := h.delivery.Dispatch(ctx, services.DeliveryTransitionInput{
		DeliveryID:      first.ID,
		ExpectedVersion: first.Version + 1,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	extra := h.createMark(t, ctx, "B-2", 2)
	_, err = h.delivery.AddItem(ctx, services.AddDeliveryItemInput{
		DeliveryID:       first.ID,
		PieceMarkID:      extra.ID,
		ExpectedQuantity: 2,
		ExpectedVersion:  dispatched.Version,
	})
	if !domainagg.IsCode(err, domainagg.CodeInvalidTransition) {
		t.Fatalf("add after dispatch: want invalid_transition, got %v", err)
	}
}

func TestDeliveryLifecycleGuards(t *testing.T) {
	h := newHarness(t)
	ctx, _ := asActor(identity.RoleProjectManager)

	d, err := h.delivery.Create(ctx, services.CreateDeliveryInput{
		ProjectID:     h.projectID,
		Number:        "D-900",
		ScheduledDate: time.Now(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// empty deliveries do not dispatch
	_, err = h.delivery.Dispatch(ctx, services.DeliveryTransitionInput{DeliveryID: d.ID, ExpectedVersion: d.Version})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("empty dispatch: want validation, got %v", err)
	}

	// arriving before dispatch skips a state
	_, err = h.delivery.Arrive(ctx, services.DeliveryTransitionInput{DeliveryID: d.ID, ExpectedVersion: d.Version})
	if !domainagg.IsCode(err, domainagg.CodeInvalidTransition) {
		t.Fatalf("arrive from pending: want invalid_transition, got %v", err)
	}

	rejected, err := h.delivery.Reject(ctx, services.DeliveryTransitionInput{
		DeliveryID:      d.ID,
		ExpectedVersion: d.Version,
		Note:            "wrong site",
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != types.DeliveryRejected {
		t.Fatalf("reject status: %s", rejected.Status)
	}

	// terminal states admit nothing
	_, err = h.delivery.Dispatch(ctx, services.DeliveryTransitionInput{DeliveryID: d.ID, ExpectedVersion: rejected.Version})
	if !domainagg.IsCode(err, domainagg.CodeInvalidTransition) {
		t.Fatalf("dispatch after reject: want invalid_transition, got %v", err)
	}

	// shop has no delivery surface
	shopCtx, _ := asActor(identity.RoleShop)
	_, err = h.delivery.Create(shopCtx, services.CreateDeliveryInput{
		ProjectID:     h.projectID,
		Number:        "D-901",
		ScheduledDate: time.Now(),
	})
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("shop create delivery: want forbidden, got %v", err)
	}
}
