package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
	"github.com/ironpoint/steeltrack-backend/internal/services"
)

type CrewHandler struct {
	log   *logger.Logger
	crews services.CrewService
}

func NewCrewHandler(log *logger.Logger, crews services.CrewService) *CrewHandler {
	return &CrewHandler{
		log:   log.With("handler", "CrewHandler"),
		crews: crews,
	}
}

type assignCrewRequest struct {
	CrewName     string      `json:"crew_name" binding:"required"`
	Date         time.Time   `json:"date" binding:"required"`
	Shift        string      `json:"shift" binding:"required"`
	CrewSize     int         `json:"crew_size" binding:"required"`
	Zone         string      `json:"zone"`
	LeadActorID  uuid.UUID   `json:"lead_actor_id" binding:"required"`
	PieceMarkIDs []uuid.UUID `json:"piece_mark_ids"`
}

// POST /api/projects/:id/crews
func (h *CrewHandler) AssignCrew(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	var req assignCrewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	crew, err := h.crews.Assign(c.Request.Context(), services.AssignCrewInput{
		ProjectID:    projectID,
		CrewName:     req.CrewName,
		Date:         req.Date,
		Shift:        req.Shift,
		CrewSize:     req.CrewSize,
		Zone:         req.Zone,
		LeadActorID:  req.LeadActorID,
		PieceMarkIDs: req.PieceMarkIDs,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, crew)
}

type crewStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// POST /api/crews/:id/status
func (h *CrewHandler) UpdateStatus(c *gin.Context) {
	crewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_crew_id", err)
		return
	}
	var req crewStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	crew, err := h.crews.UpdateStatus(c.Request.Context(), services.CrewStatusInput{
		CrewID: crewID,
		Status: types.CrewStatus(req.Status),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, crew)
}

// GET /api/crews/:id
func (h *CrewHandler) GetCrew(c *gin.Context) {
	crewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_crew_id", err)
		return
	}
	crew, err := h.crews.Get(c.Request.Context(), crewID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, crew)
}

// GET /api/projects/:id/crews
func (h *CrewHandler) ListCrews(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	crews, err := h.crews.List(c.Request.Context(), projectID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"crews": crews})
}
