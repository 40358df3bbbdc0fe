package amqp

import (
	"encoding/json"
	"time"
)

// Series event names published after materializer writes.
const (
	EventSeriesMaterialized = "series.materialized"
	EventSeriesBaseUpdated  = "series.base_updated"
	EventSeriesDeleted      = "series.deleted"
)

// SeriesEventMessage notifies external consumers that a recurrence series
// changed. It carries only identifiers and a count; consumers fetch the
// affected records from the store themselves.
type SeriesEventMessage struct {
	Event     string    `json:"event"`
	UserID    string    `json:"userId"`
	GroupID   string    `json:"groupId"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSeriesEventMessage creates a series event stamped with the current time.
func NewSeriesEventMessage(event, userID, groupID string, count int) *SeriesEventMessage {
	return &SeriesEventMessage{
		Event:     event,
		UserID:    userID,
		GroupID:   groupID,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *SeriesEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SeriesEventMessageFromJSON decodes a message from JSON bytes.
func SeriesEventMessageFromJSON(data []byte) (*SeriesEventMessage, error) {
	var msg SeriesEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
