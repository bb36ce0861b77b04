package websocket

// Event types broadcast over the run event stream.
const (
	EventRunStarted    = "run_started"
	EventStepStarted   = "step_started"
	EventStepCompleted = "step_completed"
	EventRunCompleted  = "run_completed"
	EventRunFailed     = "run_failed"
)

// Message is the wire envelope for every broadcast event.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NewMessage creates a new message.
func NewMessage(messageType string, data interface{}) *Message {
	return &Message{
		Type: messageType,
		Data: data,
	}
}

// StepEvent is the payload of step_started and step_completed events.
type StepEvent struct {
	RunID  string `json:"run_id"`
	Name   string `json:"name"`
	Seq    int    `json:"seq"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}
