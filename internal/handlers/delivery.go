package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
	"github.com/ironpoint/steeltrack-backend/internal/services"
)

type DeliveryHandler struct {
	log        *logger.Logger
	deliveries services.DeliveryService
}

func NewDeliveryHandler(log *logger.Logger, deliveries services.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{
		log:        log.With("handler", "DeliveryHandler"),
		deliveries: deliveries,
	}
}

type createDeliveryRequest struct {
	Number        string    `json:"number" binding:"required"`
	ScheduledDate time.Time `json:"scheduled_date" binding:"required"`
	Carrier       string    `json:"carrier"`
}

// POST /api/projects/:id/deliveries
func (h *DeliveryHandler) CreateDelivery(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	var req createDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	d, err := h.deliveries.Create(c.Request.Context(), services.CreateDeliveryInput{
		ProjectID:     projectID,
		Number:        req.Number,
		ScheduledDate: req.ScheduledDate,
		Carrier:       req.Carrier,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, d)
}

type addDeliveryItemRequest struct {
	PieceMarkID      uuid.UUID `json:"piece_mark_id" binding:"required"`
	ExpectedQuantity int       `json:"expected_quantity" binding:"required"`
	ExpectedVersion  int       `json:"expected_version"`
}

// POST /api/deliveries/:id/items
func (h *DeliveryHandler) AddItem(c *gin.Context) {
	deliveryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_delivery_id", err)
		return
	}
	var req addDeliveryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	item, err := h.deliveries.AddItem(c.Request.Context(), services.AddDeliveryItemInput{
		DeliveryID:       deliveryID,
		PieceMarkID:      req.PieceMarkID,
		ExpectedQuantity: req.ExpectedQuantity,
		ExpectedVersion:  req.ExpectedVersion,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, item)
}

type deliveryTransitionRequest struct {
	ExpectedVersion int    `json:"expected_version"`
	Note            string `json:"note"`
}

// POST /api/deliveries/:id/dispatch
func (h *DeliveryHandler) Dispatch(c *gin.Context) {
	h.transition(c, h.deliveries.Dispatch)
}

// POST /api/deliveries/:id/arrive
func (h *DeliveryHandler) Arrive(c *gin.Context) {
	h.transition(c, h.deliveries.Arrive)
}

// POST /api/deliveries/:id/reject
func (h *DeliveryHandler) Reject(c *gin.Context) {
	h.transition(c, h.deliveries.Reject)
}

func (h *DeliveryHandler) transition(c *gin.Context, fn func(ctx context.Context, in services.DeliveryTransitionInput) (*types.Delivery, error)) {
	deliveryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_delivery_id", err)
		return
	}
	var req deliveryTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	d, err := fn(c.Request.Context(), services.DeliveryTransitionInput{
		DeliveryID:      deliveryID,
		ExpectedVersion: req.ExpectedVersion,
		Note:            req.Note,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, d)
}

type itemOutcomeRequest struct {
	ItemID           uuid.UUID `json:"item_id" binding:"required"`
	ReceivedQuantity int       `json:"received_quantity"`
	Condition        string    `json:"condition" binding:"required"`
	Location         string    `json:"location" binding:"required"`
}

type reconcileDeliveryRequest struct {
	ExpectedVersion int                  `json:"expected_version"`
	Note            string               `json:"note"`
	Outcomes        []itemOutcomeRequest `json:"outcomes" binding:"required"`
}

// POST /api/deliveries/:id/reconcile
func (h *DeliveryHandler) Reconcile(c *gin.Context) {
	deliveryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_delivery_id", err)
		return
	}
	var req reconcileDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	in := services.ReconcileDeliveryInput{
		DeliveryID:      deliveryID,
		ExpectedVersion: req.ExpectedVersion,
		Note:            req.Note,
		Outcomes:        make([]services.ItemOutcome, 0, len(req.Outcomes)),
	}
	for _, o := range req.Outcomes {
		in.Outcomes = append(in.Outcomes, services.ItemOutcome{
			ItemID:           o.ItemID,
			ReceivedQuantity: o.ReceivedQuantity,
			Condition:        types.ItemCondition(o.Condition),
			Location:         types.Location(o.Location),
		})
	}
	d, err := h.deliveries.Reconcile(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, d)
}

// GET /api/deliveries/:id
func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	deliveryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_delivery_id", err)
		return
	}
	d, err := h.deliveries.Get(c.Request.Context(), deliveryID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, d)
}

// GET /api/projects/:id/deliveries?status=pending,in_transit
func (h *DeliveryHandler) ListDeliveries(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	var statuses []types.DeliveryStatus
	for _, s := range splitCSV(c.Query("status")) {
		statuses = append(statuses, types.DeliveryStatus(s))
	}
	deliveries, err := h.deliveries.List(c.Request.Context(), projectID, statuses)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"deliveries": deliveries})
}
