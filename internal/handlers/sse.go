package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ironpoint/steeltrack-backend/internal/observability"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
	"github.com/ironpoint/steeltrack-backend/internal/realtime"
	"github.com/ironpoint/steeltrack-backend/internal/requestdata"
	"github.com/ironpoint/steeltrack-backend/internal/services"
)

type SSEHandler struct {
	log     *logger.Logger
	hub     *realtime.SSEHub
	metrics *observability.Metrics

	mu      sync.RWMutex
	clients map[uuid.UUID]*realtime.SSEClient // key: actor ID, one stream per actor
}

func NewSSEHandler(log *logger.Logger, hub *realtime.SSEHub, metrics *observability.Metrics) *SSEHandler {
	return &SSEHandler{
		log:     log.With("handler", "SSEHandler"),
		hub:     hub,
		metrics: metrics,
		clients: make(map[uuid.UUID]*realtime.SSEClient),
	}
}

// GET /sse/stream?project=<uuid>[,<uuid>...]
//
// One stream per actor; reconnecting replaces the previous stream. The
// client may name projects up front or subscribe later. Token auth happens
// in middleware (query param or header) because EventSource cannot set
// headers.
func (h *SSEHandler) SSEStream(c *gin.Context) {
	actor := requestdata.GetActor(c.Request.Context())
	if actor.ID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	projects, ok := h.projectParams(c)
	if !ok {
		return
	}

	h.mu.Lock()
	if existing, found := h.clients[actor.ID]; found {
		h.hub.CloseClient(existing)
	}
	client := h.hub.NewSSEClient(actor.ID)
	client.Logger = h.log.With("sse_client_id", client.ID)
	h.clients[actor.ID] = client
	h.mu.Unlock()

	for _, pid := range projects {
		h.hub.AddChannel(client, services.ProjectChannel(pid))
	}

	if h.metrics != nil {
		h.metrics.SSEClientConnected()
		defer h.metrics.SSEClientDisconnected()
	}

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.mu.Lock()
	if h.clients[actor.ID] == client {
		delete(h.clients, actor.ID)
	}
	h.mu.Unlock()
	h.hub.CloseClient(client)
}

type sseSubscribeRequest struct {
	ProjectID uuid.UUID `json:"project_id" binding:"required"`
}

// POST /sse/subscribe
func (h *SSEHandler) SSESubscribe(c *gin.Context) {
	client, req, ok := h.subscriptionTarget(c)
	if !ok {
		return
	}
	h.hub.AddChannel(client, services.ProjectChannel(req.ProjectID))
	RespondOK(c, gin.H{"subscribed": req.ProjectID})
}

// POST /sse/unsubscribe
func (h *SSEHandler) SSEUnsubscribe(c *gin.Context) {
	client, req, ok := h.subscriptionTarget(c)
	if !ok {
		return
	}
	h.hub.RemoveChannel(client, services.ProjectChannel(req.ProjectID))
	RespondOK(c, gin.H{"unsubscribed": req.ProjectID})
}

func (h *SSEHandler) subscriptionTarget(c *gin.Context) (*realtime.SSEClient, sseSubscribeRequest, bool) {
	var req sseSubscribeRequest
	actor := requestdata.GetActor(c.Request.Context())
	if actor.ID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return nil, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return nil, req, false
	}
	h.mu.RLock()
	client, found := h.clients[actor.ID]
	h.mu.RUnlock()
	if !found {
		RespondError(c, http.StatusConflict, "no_active_stream", nil)
		return nil, req, false
	}
	return client, req, true
}

func (h *SSEHandler) projectParams(c *gin.Context) ([]uuid.UUID, bool) {
	raw := splitCSV(c.Query("project"))
	projects := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
			return nil, false
		}
		projects = append(projects, id)
	}
	return projects, true
}
