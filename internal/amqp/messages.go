package amqp

import (
	"encoding/json"
	"time"

	"adminsum/internal/store"
)

// ChangeMessage is the wire form of a record change event. Consumers never
// trust it as authoritative; it only triggers a full re-fetch.
type ChangeMessage struct {
	Op        string    `json:"op"`
	IDs       []string  `json:"ids,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(c store.Change) *ChangeMessage {
	return &ChangeMessage{
		Op:        string(c.Op),
		IDs:       c.IDs,
		Timestamp: c.Timestamp,
	}
}

func (m *ChangeMessage) Change() store.Change {
	return store.Change{
		Op:        store.Op(m.Op),
		IDs:       m.IDs,
		Timestamp: m.Timestamp,
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
