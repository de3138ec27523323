package publishers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Fetch outcomes carried by events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Event reports the outcome of one applied fetch for an endpoint.
type Event struct {
	EndpointID  string    `json:"endpoint_id"`
	Kind        string    `json:"kind"`
	Count       int       `json:"count"`
	Revision    uint64    `json:"revision"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewEvent constructs an Event for the given endpoint fetch. An empty errMsg marks success.
func NewEvent(endpointID, kind string, count int, revision uint64, errMsg string) Event {
	return Event{
		EndpointID:  endpointID,
		Kind:        kind,
		Count:       count,
		Revision:    revision,
		Error:       errMsg,
		CompletedAt: time.Now().UTC(),
	}
}

// Outcome is OutcomeSuccess or OutcomeFailure.
func (e Event) Outcome() string {
	if e.Error == "" {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// envelope is the sink-neutral rendering of an event.
type envelope struct {
	body  []byte
	attrs map[string]string
	// groupKey orders events of one endpoint on sinks that support it.
	groupKey string
	// dedupKey identifies this exact event for sinks that deduplicate.
	dedupKey string
}

func (e Event) envelope() (envelope, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return envelope{}, fmt.Errorf("marshal event: %w", err)
	}
	return envelope{
		body: body,
		attrs: map[string]string{
			"endpoint_id": e.EndpointID,
			"kind":        e.Kind,
			"outcome":     e.Outcome(),
			"revision":    strconv.FormatUint(e.Revision, 10),
		},
		groupKey: e.EndpointID,
		dedupKey: fmt.Sprintf("%s-%d-%d", e.EndpointID, e.Revision, e.CompletedAt.UnixNano()),
	}, nil
}
