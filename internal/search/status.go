package search

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle status of a search surface.
type Status int32

const (
	// StatusIdle indicates no query is active and no results are held.
	StatusIdle Status = iota

	// StatusPending indicates a query is waiting out its debounce
	// window.
	StatusPending

	// StatusInFlight indicates the query has been issued and its
	// response is awaited.
	StatusInFlight

	// StatusResolved indicates the last issued query completed, with
	// or without results.
	StatusResolved

	// StatusErrored indicates the last issued query failed; results
	// are cleared.
	StatusErrored
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusInFlight:
		return "in-flight"
	case StatusResolved:
		return "resolved"
	case StatusErrored:
		return "errored"
	default:
		return fmt.Sprintf("status(%d)", s)
	}
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ParseStatus converts a string to Status.
func ParseStatus(s string) Status {
	switch s {
	case "pending":
		return StatusPending
	case "in-flight":
		return StatusInFlight
	case "resolved":
		return StatusResolved
	case "errored":
		return StatusErrored
	default:
		return StatusIdle
	}
}

// ValidTransitions defines allowed status transitions. A new query can
// interrupt any state back to Pending (or Idle when too short), so the
// machine is permissive everywhere except that terminal results can
// only come out of InFlight.
var ValidTransitions = map[Status][]Status{
	StatusIdle:     {StatusIdle, StatusPending, StatusInFlight},
	StatusPending:  {StatusIdle, StatusPending, StatusInFlight},
	StatusInFlight: {StatusIdle, StatusPending, StatusInFlight, StatusResolved, StatusErrored},
	StatusResolved: {StatusIdle, StatusPending, StatusInFlight},
	StatusErrored:  {StatusIdle, StatusPending, StatusInFlight},
}

// CanTransition returns true if the transition from -> to is valid.
func CanTransition(from, to Status) bool {
	for _, s := range ValidTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
