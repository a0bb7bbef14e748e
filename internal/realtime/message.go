package realtime

type SSEEvent string

const (
	SSEEventPieceMarkCreated SSEEvent = "PieceMarkCreated"
	SSEEventStatusChanged    SSEEvent = "PieceMarkStatusChanged"
	SSEEventLocationChanged  SSEEvent = "PieceMarkLocationChanged"
	SSEEventDeliveryCreated  SSEEvent = "DeliveryCreated"
	SSEEventDeliveryUpdated  SSEEvent = "DeliveryUpdated"
	SSEEventDeliveryReceived SSEEvent = "DeliveryReceived"
	SSEEventCrewUpdated      SSEEvent = "CrewUpdated"
	SSEEventActivityAppended SSEEvent = "ActivityAppended"
)

// SSEMessage is one dashboard fan-out frame. Channel is the project id; every
// viewer of a project shares one channel.
type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}
