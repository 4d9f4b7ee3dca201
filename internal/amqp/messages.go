package amqp

import (
	"encoding/json"
	"time"
)

// ChangeMessage announces a committed write to a ledger record. It carries
// no record data; consumers reload the full record set.
type ChangeMessage struct {
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(id, op string, seq uint64) *ChangeMessage {
	return &ChangeMessage{
		ID:        id,
		Op:        op,
		Seq:       seq,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
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
