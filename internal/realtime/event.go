// Package realtime carries snapshot events from the server to connected clients.
package realtime

import (
	"encoding/json"
	"time"
)

// EventSnapshotUpdated announces that a snapshot file was replaced on the server.
const EventSnapshotUpdated = "snapshot_updated"

// Event is the JSON message sent over the websocket.
type Event struct {
	Type string    `json:"type"`
	File string    `json:"file,omitempty"`
	At   time.Time `json:"at"`
}

// SnapshotUpdated builds the event for a replaced snapshot file.
func SnapshotUpdated(file string) Event {
	return Event{Type: EventSnapshotUpdated, File: file, At: time.Now().UTC()}
}

// DecodeEvent parses a websocket message.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(data, &ev)
	return ev, err
}
