package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// LiveAlert is the object schema served by the live endpoint while an
// alert is active. All fields are optional upstream; absent fields decode
// to their zero values.
type LiveAlert struct {
	Data []string `json:"data"`
	Cat  string   `json:"cat"`
	Desc string   `json:"desc"`
}

// HistoryEntry is one element of the array schema served by the history
// endpoint.
type HistoryEntry struct {
	AlertDate string `json:"alertDate"`
	Data      string `json:"data"`
	Category  string `json:"category"`
}

// Payload is a decoded feed document. Exactly one of Live and History is
// set; which one depends on the endpoint polled.
type Payload struct {
	Live    *LiveAlert
	History []HistoryEntry
}

// ErrUnrecognizedPayload reports a feed document that matches neither the
// live object schema nor the history array schema.
var ErrUnrecognizedPayload = errors.New("unrecognized feed payload")

// DecodePayload determines which schema a raw feed document follows and
// decodes it. A JSON object decodes as a live alert, a JSON array as
// history entries; anything else fails with ErrUnrecognizedPayload.
func DecodePayload(raw json.RawMessage) (Payload, error) {
	doc := bytes.TrimSpace(raw)
	if len(doc) == 0 {
		return Payload{}, fmt.Errorf("%w: empty document", ErrUnrecognizedPayload)
	}
	switch doc[0] {
	case '{':
		var live LiveAlert
		if err := json.Unmarshal(doc, &live); err != nil {
			return Payload{}, fmt.Errorf("%w: live object: %v", ErrUnrecognizedPayload, err)
		}
		return Payload{Live: &live}, nil
	case '[':
		var history []HistoryEntry
		if err := json.Unmarshal(doc, &history); err != nil {
			return Payload{}, fmt.Errorf("%w: history array: %v", ErrUnrecognizedPayload, err)
		}
		return Payload{History: history}, nil
	default:
		return Payload{}, fmt.Errorf("%w: document starts with %q", ErrUnrecognizedPayload, doc[0])
	}
}
