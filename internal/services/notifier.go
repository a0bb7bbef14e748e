package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	"github.com/ironpoint/steeltrack-backend/internal/observability"
	"github.com/ironpoint/steeltrack-backend/internal/realtime"
)

// TrackingNotifier publishes committed transitions to project channels.
// Fire and forget: broadcast failures never surface to the caller and never
// roll anything back.
type TrackingNotifier interface {
	PieceMarkCreated(projectID uuid.UUID, mark *types.PieceMark)
	PieceMarkStatusChanged(projectID uuid.UUID, mark *types.PieceMark, change string)
	PieceMarkLocationChanged(projectID uuid.UUID, mark *types.PieceMark)
	DeliveryCreated(projectID uuid.UUID, delivery *types.Delivery)
	DeliveryUpdated(projectID uuid.UUID, delivery *types.Delivery, kind types.TransitionKind)
	DeliveryReceived(projectID uuid.UUID, delivery *types.Delivery, shortfalls int)
	CrewUpdated(projectID uuid.UUID, crew *types.CrewAssignment, kind types.TransitionKind)
}

type trackingNotifier struct {
	emit    SSEEmitter
	metrics *observability.Metrics
}

func NewTrackingNotifier(emit SSEEmitter, metrics *observability.Metrics) TrackingNotifier {
	return &trackingNotifier{emit: emit, metrics: metrics}
}

// ProjectChannel is the SSE channel name every viewer of a project shares.
func ProjectChannel(projectID uuid.UUID) string {
	return "project:" + projectID.String()
}

func (n *trackingNotifier) send(projectID uuid.UUID, subject types.SubjectType, kind types.TransitionKind, event realtime.SSEEvent, data map[string]any) {
	if n == nil || n.emit == nil || projectID == uuid.Nil {
		return
	}
	n.metrics.IncTransition(string(subject), string(kind))
	n.metrics.IncSSEBroadcast()
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: ProjectChannel(projectID),
		Event:   event,
		Data:    data,
	})
}

func (n *trackingNotifier) PieceMarkCreated(projectID uuid.UUID, mark *types.PieceMark) {
	n.send(projectID, types.SubjectPieceMark, types.KindPieceMarkCreated, realtime.SSEEventPieceMarkCreated, map[string]any{"piece_mark": mark})
}

func (n *trackingNotifier) PieceMarkStatusChanged(projectID uuid.UUID, mark *types.PieceMark, change string) {
	n.send(projectID, types.SubjectPieceMark, types.TransitionKind(change), realtime.SSEEventStatusChanged, map[string]any{
		"piece_mark": mark,
		"change":     change,
	})
}

func (n *trackingNotifier) PieceMarkLocationChanged(projectID uuid.UUID, mark *types.PieceMark) {
	n.send(projectID, types.SubjectPieceMark, types.KindLocationUpdate, realtime.SSEEventLocationChanged, map[string]any{"piece_mark": mark})
}

func (n *trackingNotifier) DeliveryCreated(projectID uuid.UUID, delivery *types.Delivery) {
	n.send(projectID, types.SubjectDelivery, types.KindDeliveryCreated, realtime.SSEEventDeliveryCreated, map[string]any{"delivery": delivery})
}

func (n *trackingNotifier) DeliveryUpdated(projectID uuid.UUID, delivery *types.Delivery, kind types.TransitionKind) {
	n.send(projectID, types.SubjectDelivery, kind, realtime.SSEEventDeliveryUpdated, map[string]any{
		"delivery": delivery,
		"kind":     kind,
	})
}

func (n *trackingNotifier) DeliveryReceived(projectID uuid.UUID, delivery *types.Delivery, shortfalls int) {
	n.send(projectID, types.SubjectDelivery, types.KindDeliveryReceived, realtime.SSEEventDeliveryReceived, map[string]any{
		"delivery":   delivery,
		"shortfalls": shortfalls,
	})
}

func (n *trackingNotifier) CrewUpdated(projectID uuid.UUID, crew *types.CrewAssignment, kind types.TransitionKind) {
	n.send(projectID, types.SubjectCrew, kind, realtime.SSEEventCrewUpdated, map[string]any{"crew": crew})
}
