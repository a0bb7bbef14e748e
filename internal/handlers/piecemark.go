package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ironpoint/steeltrack-backend/internal/data/repos"
	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
	"github.com/ironpoint/steeltrack-backend/internal/services"
)

type PieceMarkHandler struct {
	log   *logger.Logger
	marks services.PieceMarkService
}

func NewPieceMarkHandler(log *logger.Logger, marks services.PieceMarkService) *PieceMarkHandler {
	return &PieceMarkHandler{
		log:   log.With("handler", "PieceMarkHandler"),
		marks: marks,
	}
}

type createPieceMarkRequest struct {
	Mark           string  `json:"mark" binding:"required"`
	Quantity       int     `json:"quantity" binding:"required"`
	WeightPerUnit  float64 `json:"weight_per_unit" binding:"required"`
	Material       string  `json:"material"`
	DrawingRef     string  `json:"drawing_ref"`
	SequenceNumber int     `json:"sequence_number"`
}

// POST /api/projects/:id/piece-marks
func (h *PieceMarkHandler) CreatePieceMark(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	var req createPieceMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	pm, err := h.marks.Create(c.Request.Context(), services.CreatePieceMarkInput{
		ProjectID:      projectID,
		Mark:           req.Mark,
		Quantity:       req.Quantity,
		WeightPerUnit:  req.WeightPerUnit,
		Material:       req.Material,
		DrawingRef:     req.DrawingRef,
		SequenceNumber: req.SequenceNumber,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, pm)
}

type statusChangeRequest struct {
	ExpectedVersion int    `json:"expected_version"`
	Note            string `json:"note"`
}

// POST /api/piece-marks/:id/advance
func (h *PieceMarkHandler) AdvanceStatus(c *gin.Context) {
	h.changeStatus(c, h.marks.AdvanceStatus)
}

// POST /api/piece-marks/:id/rollback
func (h *PieceMarkHandler) RollbackStatus(c *gin.Context) {
	h.changeStatus(c, h.marks.RollbackStatus)
}

func (h *PieceMarkHandler) changeStatus(c *gin.Context, fn func(ctx context.Context, in services.StatusChangeInput) (*types.PieceMark, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_piece_mark_id", err)
		return
	}
	var req statusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	pm, err := fn(c.Request.Context(), services.StatusChangeInput{
		PieceMarkID:     id,
		ExpectedVersion: req.ExpectedVersion,
		Note:            req.Note,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, pm)
}

type updateLocationRequest struct {
	Location        string `json:"location" binding:"required"`
	ExpectedVersion int    `json:"expected_version"`
	Note            string `json:"note"`
}

// POST /api/piece-marks/:id/location
func (h *PieceMarkHandler) UpdateLocation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_piece_mark_id", err)
		return
	}
	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	pm, err := h.marks.UpdateLocation(c.Request.Context(), services.UpdateLocationInput{
		PieceMarkID:     id,
		Location:        types.Location(req.Location),
		ExpectedVersion: req.ExpectedVersion,
		Note:            req.Note,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, pm)
}

// GET /api/piece-marks/:id
func (h *PieceMarkHandler) GetPieceMark(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_piece_mark_id", err)
		return
	}
	pm, err := h.marks.Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, pm)
}

// GET /api/projects/:id/piece-marks?status=shipped,installed&location=yard
func (h *PieceMarkHandler) ListPieceMarks(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	q := repos.PieceMarkQuery{ProjectID: projectID}
	for _, s := range splitCSV(c.Query("status")) {
		q.Statuses = append(q.Statuses, types.Status(s))
	}
	for _, l := range splitCSV(c.Query("location")) {
		q.Locations = append(q.Locations, types.Location(l))
	}
	marks, err := h.marks.List(c.Request.Context(), q)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"piece_marks": marks})
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
