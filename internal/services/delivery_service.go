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

type CreateDeliveryInput struct {
	ProjectID     uuid.UUID
	Number        string
	ScheduledDate time.Time
	Carrier       string
}

type AddDeliveryItemInput struct {
	DeliveryID       uuid.UUID
	PieceMarkID      uuid.UUID
	ExpectedQuantity int
	ExpectedVersion  int
}

type DeliveryTransitionInput struct {
	DeliveryID      uuid.UUID
	ExpectedVersion int
	Note            string
}

// ItemOutcome is the receipt-time resolution for one delivery item.
type ItemOutcome struct {
	ItemID           uuid.UUID
	ReceivedQuantity int
	Condition        types.ItemCondition
	Location         types.Location
}

type ReconcileDeliveryInput struct {
	DeliveryID      uuid.UUID
	ExpectedVersion int
	Outcomes        []ItemOutcome
	Note            string
}

type DeliveryService interface {
	Create(ctx context.Context, in CreateDeliveryInput) (*types.Delivery, error)
	AddItem(ctx context.Context, in AddDeliveryItemInput) (*types.DeliveryItem, error)
	Dispatch(ctx context.Context, in DeliveryTransitionInput) (*types.Delivery, error)
	Arrive(ctx context.Context, in DeliveryTransitionInput) (*types.Delivery, error)
	Reject(ctx context.Context, in DeliveryTransitionInput) (*types.Delivery, error)
	Reconcile(ctx context.Context, in ReconcileDeliveryInput) (*types.Delivery, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Delivery, error)
	List(ctx context.Context, projectID uuid.UUID, statuses []types.DeliveryStatus) ([]*types.Delivery, error)
}

type DeliveryServiceDeps struct {
	Base       dataagg.BaseDeps
	Projects   repos.ProjectRepo
	Deliveries repos.DeliveryRepo
	Items      repos.DeliveryItemRepo
	Marks      repos.PieceMarkRepo
	Activity   repos.ActivityLogRepo
	Notifier   TrackingNotifier
}

type deliveryService struct {
	deps DeliveryServiceDeps
}

func NewDeliveryService(deps DeliveryServiceDeps) DeliveryService {
	deps.Base = deps.Base.WithDefaults()
	return &deliveryService{deps: deps}
}

func (s *deliveryService) Create(ctx context.Context, in CreateDeliveryInput) (*types.Delivery, error) {
	const op = "Tracking.Delivery.Create"
	actor := requestdata.GetActor(ctx)
	if err := authz.Require(authz.Request{Actor: actor, Action: authz.ActionDeliverySetup}); err != nil {
		return nil, err
	}
	if in.ProjectID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id", nil)
	}
	number := strings.TrimSpace(in.Number)
	if number == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing delivery number", nil)
	}
	if in.ScheduledDate.IsZero() {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing scheduled date", nil)
	}

	created := &types.Delivery{
		ID:            uuid.New(),
		ProjectID:     in.ProjectID,
		Number:        number,
		ScheduledDate: in.ScheduledDate,
		Status:        types.DeliveryPending,
		Carrier:       strings.TrimSpace(in.Carrier),
	}

	err := dataagg.ExecuteWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := s.deps.Projects.GetByID(dbc.Ctx, dbc.Tx, in.ProjectID); err != nil {
			return err
		}
		if _, err := s.deps.Deliveries.Create(dbc.Ctx, dbc.Tx, []*types.Delivery{created}); err != nil {
			return err
		}
		_, err := s.deps.Activity.Append(dbc.Ctx, dbc.Tx, []*types.ActivityLogEntry{{
			ID:          uuid.New(),
			ProjectID:   in.ProjectID,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
			SubjectType: types.SubjectDelivery,
			SubjectID:   created.ID,
			Kind:        types.KindDeliveryCreated,
			After:       types.Snapshot(created),
		}})
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.deps.Notifier != nil {
		s.deps.Notifier.DeliveryCreated(created.ProjectID, created)
	}
	return created, nil
}

func (s *deliveryService) AddItem(ctx context.Context, in AddDeliveryItemInput) (*types.DeliveryItem, error) {
	const op = "Tracking.Delivery.AddItem"
	actor := requestdata.GetActor(ctx)
	if err := authz.Require(authz.Request{Actor: actor, Action: authz.ActionDeliverySetup}); err != nil {
		return nil, err
	}
	if in.DeliveryID == uuid.Nil || in.PieceMarkID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing delivery or piece_mark id", nil)
	}
	if in.ExpectedQuantity <= 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "expected quantity must be positive", nil)
	}
	if in.ExpectedVersion < 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing expected version", nil)
	}

	var created *types.DeliveryItem
	err := dataagg.ExecuteWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		delivery, err := s.deps.Deliveries.GetByID(dbc.Ctx, dbc.Tx, in.DeliveryID)
		if err != nil {
			return err
		}
		if delivery.Status != types.DeliveryPending {
			return domainagg.NewError(domainagg.CodeInvalidTransition, op,
				fmt.Sprintf("items can only be added while pending, delivery is %q", delivery.Status), nil)
		}
		mark, err := s.deps.Marks.GetByID(dbc.Ctx, dbc.Tx, in.PieceMarkID)
		if err != nil {
			return err
		}
		if mark.ProjectID != delivery.ProjectID {
			return domainagg.NewError(domainagg.CodeValidation, op, "piece mark belongs to another project", nil)
		}
		open, err := s.deps.Items.GetOpenByPieceMarkIDs(dbc.Ctx, dbc.Tx, []uuid.UUID{mark.ID})
		if err != nil {
			return err
		}
		if len(open) > 0 {
			return domainagg.NewError(domainagg.CodeValidation, op,
				fmt.Sprintf("piece mark %q is already on an open delivery", mark.Mark), nil)
		}

		// Bumping the delivery version serializes concurrent item setup.
		ok, err := s.deps.Base.CASGuard.UpdateByVersion(dbc, "delivery", delivery.ID, in.ExpectedVersion, map[string]any{})
		if err != nil {
			return err
		}
		if err := dataagg.RequireCASSuccess(ok, "delivery changed while adding item"); err != nil {
			return err
		}
		// The piece mark row is the unit of mutual exclusion for open items.
		// Two promises of the same mark on different deliveries CAS different
		// delivery rows, so the open-item check alone cannot arbitrate them;
		// bumping the mark's version makes the loser fail the guard.
		ok, err = s.deps.Base.CASGuard.UpdateByVersion(dbc, "piece_mark", mark.ID, mark.Version, map[string]any{})
		if err != nil {
			return err
		}
		if err := dataagg.RequireCASSuccess(ok, "piece mark changed while adding item"); err != nil {
			return err
		}

		item := &types.DeliveryItem{
			ID:               uuid.New(),
			DeliveryID:       delivery.ID,
			PieceMarkID:      mark.ID,
			ExpectedQuantity: in.ExpectedQuantity,
		}
		if _, err := s.deps.Items.Create(dbc.Ctx, dbc.Tx, []*types.DeliveryItem{item}); err != nil {
			return err
		}
		if _, err := s.deps.Activity.Append(dbc.Ctx, dbc.Tx, []*types.ActivityLogEntry{{
			ID:          uuid.New(),
			ProjectID:   delivery.ProjectID,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
			SubjectType: types.SubjectDelivery,
			SubjectID:   delivery.ID,
			Kind:        types.KindDeliveryItemAdded,
			After:       types.Snapshot(item),
		}}); err != nil {
			return err
		}
		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *deliveryService) Dispatch(ctx context.Context, in DeliveryTransitionInput) (*types.Delivery, error) {
	return s.transition(ctx, "Tracking.Delivery.Dispatch", in, types.DeliveryInTransit,
		authz.ActionDeliverySetup, types.KindDeliveryDispatch)
}

func (s *deliveryService) Arrive(ctx context.Context, in DeliveryTransitionInput) (*types.Delivery, error) {
	return s.transition(ctx, "Tracking.Delivery.Arrive", in, types.DeliveryDelivered,
		authz.ActionDeliveryReceive, types.KindDeliveryArrived)
}

func (s *deliveryService) Reject(ctx context.Context, in DeliveryTransitionInput) (*types.Delivery, error) {
	return s.transition(ctx, "Tracking.Delivery.Reject", in, types.DeliveryRejected,
		authz.ActionDeliveryReceive, types.KindDeliveryRejected)
}

func (s *deliveryService) transition(ctx context.Context, op string, in DeliveryTransitionInput, to types.DeliveryStatus, action authz.Action, kind types.TransitionKind) (*types.Delivery, error) {
	actor := requestdata.GetActor(ctx)
	if err := authz.Require(authz.Request{Actor: actor, Action: action}); err != nil {
		return nil, err
	}
	if in.DeliveryID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing delivery id", nil)
	}
	if in.ExpectedVersion < 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing expected version", nil)
	}

	var updated *types.Delivery
	err := dataagg.ExecuteWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		delivery, err := s.deps.Deliveries.GetWithItems(dbc.Ctx, dbc.Tx, in.DeliveryID)
		if err != nil {
			return err
		}
		if err := tracking.ValidateDeliveryChange(delivery.Status, to); err != nil {
			return err
		}
		if to == types.DeliveryInTransit && len(delivery.Items) == 0 {
			return domainagg.NewError(domainagg.CodeValidation, op, "cannot dispatch an empty delivery", nil)
		}

		before := *delivery
		next := *delivery
		next.Status = to
		next.Version = in.ExpectedVersion + 1
		updates := map[string]any{"status": to}
		if to == types.DeliveryDelivered {
			now := time.Now().UTC()
			next.ArrivedAt = &now
			updates["arrived_at"] = now
		}

		ok, err := s.deps.Base.CASGuard.UpdateByVersion(dbc, "delivery", delivery.ID, in.ExpectedVersion, updates)
		if err != nil {
			return err
		}
		if err := dataagg.RequireCASSuccess(ok, "delivery changed while transitioning"); err != nil {
			return err
		}

		if _, err := s.deps.Activity.Append(dbc.Ctx, dbc.Tx, []*types.ActivityLogEntry{{
			ID:          uuid.New(),
			ProjectID:   delivery.ProjectID,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
			SubjectType: types.SubjectDelivery,
			SubjectID:   delivery.ID,
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
		s.deps.Notifier.DeliveryUpdated(updated.ProjectID, updated, kind)
	}
	return updated, nil
}

// Reconcile finalizes a delivered load. All or nothing: every item needs an
// outcome, every outcome must clear the cumulative over-receipt check, and the
// delivery, its items, the piece marks and the audit entries commit in one
// transaction. Any failure leaves the delivery delivered and mutates nothing.
func (s *deliveryService) Reconcile(ctx context.Context, in ReconcileDeliveryInput) (*types.Delivery, error) {
	const op = "Tracking.Delivery.Reconcile"
	actor := requestdata.GetActor(ctx)
	if err := authz.Require(authz.Request{Actor: actor, Action: authz.ActionDeliveryReceive}); err != nil {
		return nil, err
	}
	if in.DeliveryID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing delivery id", nil)
	}
	if in.ExpectedVersion < 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing expected version", nil)
	}
	for _, o := range in.Outcomes {
		if o.ItemID == uuid.Nil {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "outcome missing item id", nil)
		}
		if o.ReceivedQuantity < 0 {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "received quantity must be non-negative", nil)
		}
		if !o.Condition.Valid() {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown condition %q", o.Condition), nil)
		}
		if !o.Location.Valid() {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown location %q", o.Location), nil)
		}
	}

	var updated *types.Delivery
	var totalShortfall int
	err := dataagg.ExecuteWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		delivery, err := s.deps.Deliveries.GetWithItems(dbc.Ctx, dbc.Tx, in.DeliveryID)
		if err != nil {
			return err
		}
		if err := tracking.ValidateDeliveryChange(delivery.Status, types.DeliveryReceived); err != nil {
			return err
		}

		outcomes := make(map[uuid.UUID]ItemOutcome, len(in.Outcomes))
		for _, o := range in.Outcomes {
			if _, dup := outcomes[o.ItemID]; dup {
				return domainagg.NewError(domainagg.CodeValidation, op,
					fmt.Sprintf("duplicate outcome for item %s", o.ItemID), nil)
			}
			outcomes[o.ItemID] = o
		}

		itemsByID := make(map[uuid.UUID]types.DeliveryItem, len(delivery.Items))
		var unresolved int
		for _, item := range delivery.Items {
			itemsByID[item.ID] = item
			if _, ok := outcomes[item.ID]; !ok && !item.Resolved() {
				unresolved++
			}
		}
		for id := range outcomes {
			if _, ok := itemsByID[id]; !ok {
				return domainagg.NewError(domainagg.CodeValidation, op,
					fmt.Sprintf("item %s is not on this delivery", id), nil)
			}
		}
		if unresolved > 0 {
			return domainagg.NewError(domainagg.CodeIncompleteReconciliation, op,
				fmt.Sprintf("%d item(s) have no reconciliation outcome", unresolved), nil)
		}

		markIDs := make([]uuid.UUID, 0, len(outcomes))
		for id := range outcomes {
			markIDs = append(markIDs, itemsByID[id].PieceMarkID)
		}
		marks, err := s.deps.Marks.GetByIDs(dbc.Ctx, dbc.Tx, markIDs)
		if err != nil {
			return err
		}
		marksByID := make(map[uuid.UUID]*types.PieceMark, len(marks))
		for _, m := range marks {
			marksByID[m.ID] = m
		}

		// Over-receipt is cumulative across split deliveries: what this
		// load brings plus everything already received may not exceed the
		// piece mark's total quantity.
		for itemID, o := range outcomes {
			item := itemsByID[itemID]
			mark, ok := marksByID[item.PieceMarkID]
			if !ok {
				return domainagg.NewError(domainagg.CodeNotFound, op,
					fmt.Sprintf("piece mark not found: %s", item.PieceMarkID), nil)
			}
			if mark.ReceivedQuantity+o.ReceivedQuantity > mark.Quantity {
				return domainagg.NewError(domainagg.CodeOverReceipt, op,
					fmt.Sprintf("piece mark %q: received %d + %d exceeds quantity %d",
						mark.Mark, mark.ReceivedQuantity, o.ReceivedQuantity, mark.Quantity), nil)
			}
		}

		entries := make([]*types.ActivityLogEntry, 0, len(outcomes)+1)
		for itemID, o := range outcomes {
			item := itemsByID[itemID]
			mark := marksByID[item.PieceMarkID]

			if err := s.deps.Items.RecordOutcome(dbc.Ctx, dbc.Tx, itemID, o.ReceivedQuantity, o.Condition, o.Location); err != nil {
				return err
			}

			markBefore := *mark
			markUpdates := map[string]any{
				"received_quantity": mark.ReceivedQuantity + o.ReceivedQuantity,
			}
			markNext := *mark
			markNext.ReceivedQuantity = mark.ReceivedQuantity + o.ReceivedQuantity
			markNext.Version = mark.Version + 1
			// A mark split across deliveries keeps its prior location until
			// the load that exhausts its planned quantity reconciles.
			if mark.ReceivedQuantity+item.ExpectedQuantity >= mark.Quantity {
				loc := o.Location
				markUpdates["location"] = o.Location
				markNext.Location = &loc
			}
			if mark.Status.Ordinal() < types.StatusShipped.Ordinal() {
				markUpdates["status"] = types.StatusShipped
				markNext.Status = types.StatusShipped
			}
			ok, err := s.deps.Base.CASGuard.UpdateByVersion(dbc, "piece_mark", mark.ID, mark.Version, markUpdates)
			if err != nil {
				return err
			}
			if err := dataagg.RequireCASSuccess(ok, "piece mark changed while reconciling"); err != nil {
				return err
			}

			entry := &types.ActivityLogEntry{
				ID:          uuid.New(),
				ProjectID:   delivery.ProjectID,
				ActorID:     actor.ID,
				ActorRole:   actor.Role,
				SubjectType: types.SubjectPieceMark,
				SubjectID:   mark.ID,
				Kind:        types.KindItemReconciled,
				Before:      types.Snapshot(&markBefore),
				After:       types.Snapshot(&markNext),
			}
			if short := item.ExpectedQuantity - o.ReceivedQuantity; short > 0 {
				// Discrepancies are surfaced on the entry, never dropped
				// and never blocking the clean items on the same load.
				sh := short
				entry.Shortfall = &sh
				entry.Note = fmt.Sprintf("condition %s: expected %d, received %d", o.Condition, item.ExpectedQuantity, o.ReceivedQuantity)
				totalShortfall += short
			}
			entries = append(entries, entry)
		}

		before := *delivery
		next := *delivery
		next.Status = types.DeliveryReceived
		next.Version = in.ExpectedVersion + 1
		ok, err := s.deps.Base.CASGuard.UpdateByVersion(dbc, "delivery", delivery.ID, in.ExpectedVersion, map[string]any{
			"status": types.DeliveryReceived,
		})
		if err != nil {
			return err
		}
		if err := dataagg.RequireCASSuccess(ok, "delivery changed while reconciling"); err != nil {
			return err
		}

		entries = append(entries, &types.ActivityLogEntry{
			ID:          uuid.New(),
			ProjectID:   delivery.ProjectID,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
			SubjectType: types.SubjectDelivery,
			SubjectID:   delivery.ID,
			Kind:        types.KindDeliveryReceived,
			Before:      types.Snapshot(&before),
			After:       types.Snapshot(&next),
			Note:        strings.TrimSpace(in.Note),
		})
		if _, err := s.deps.Activity.Append(dbc.Ctx, dbc.Tx, entries); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.deps.Notifier != nil {
		s.deps.Notifier.DeliveryReceived(updated.ProjectID, updated, totalShortfall)
	}
	return updated, nil
}

func (s *deliveryService) Get(ctx context.Context, id uuid.UUID) (*types.Delivery, error) {
	const op = "Tracking.Delivery.Get"
	if id == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing delivery id", nil)
	}
	delivery, err := s.deps.Deliveries.GetWithItems(ctx, nil, id)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return delivery, nil
}

func (s *deliveryService) List(ctx context.Context, projectID uuid.UUID, statuses []types.DeliveryStatus) ([]*types.Delivery, error) {
	const op = "Tracking.Delivery.List"
	if projectID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id", nil)
	}
	for _, st := range statuses {
		if !st.Valid() {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown delivery status %q", st), nil)
		}
	}
	deliveries, err := s.deps.Deliveries.ListByProject(ctx, nil, projectID, statuses)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return deliveries, nil
}
