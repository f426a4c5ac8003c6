package amqp

import (
	"encoding/json"
	"time"
)

// FeedChangedMessage tells the sync worker that the external feed has
// new rows. It carries no row data; the worker always re-reads the
// whole feed.
type FeedChangedMessage struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewFeedChangedMessage(reason string) *FeedChangedMessage {
	return &FeedChangedMessage{
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func (m *FeedChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func FeedChangedMessageFromJSON(data []byte) (*FeedChangedMessage, error) {
	var msg FeedChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
