package domain

// Message is the Pub/Sub message carried by a trigger event. Data holds the
// base64 encoded audit-log entry.
type Message struct {
	Data        string            `json:"data"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	MessageID   string            `json:"messageId,omitempty"`
	PublishTime string            `json:"publishTime,omitempty"`
}

// Event is the envelope delivered by the trigger.
type Event struct {
	Data *Message `json:"data"`
}

// PushRequest is the body of a Pub/Sub push delivery.
type PushRequest struct {
	Message      *Message `json:"message"`
	Subscription string   `json:"subscription"`
}

// Event converts a push delivery into a trigger event.
func (p *PushRequest) Event() *Event {
	return &Event{Data: p.Message}
}
