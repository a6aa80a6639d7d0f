// Package events carries operational notices (leads, cache sweeps) to the admin stream.
package events

import (
	"encoding/json"
	"time"
)

const (
	TypeLeadCreated  = "lead_created"
	TypeLeadFiltered = "lead_filtered"
	TypeImagesSwept  = "images_swept"
	TypePing         = "ping"
)

// Version of the event envelope.
const Version = 1

type Event struct {
	Seq       uint64          `json:"seq"`
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// LeadData is the only lead detail published. It carries no contact fields.
type LeadData struct {
	ID         string `json:"id,omitempty"`
	Collection string `json:"collection"`
}

type SweepData struct {
	Deleted int64 `json:"deleted"`
}

// New builds an event. Seq is assigned when the event is published.
func New(reqID, typ string, data any) Event {
	e := Event{
		Type:      typ,
		Version:   Version,
		At:        time.Now().UTC(),
		RequestID: reqID,
	}
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			e.Data = b
		}
	}
	return e
}

// JSON is the envelope as sent on the wire.
func (e Event) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}
