package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Category classifies a failed gateway call by transport status and
// response shape rather than by error type.
type Category int

const (
	// CategoryTransport covers network failures and timeouts with no
	// structured response.
	CategoryTransport Category = iota

	// CategoryUnauthorized is a 401 response.
	CategoryUnauthorized

	// CategoryForbidden is a 403 response.
	CategoryForbidden

	// CategoryNotFound is a 404 response.
	CategoryNotFound

	// CategoryValidation is a 400 or 422 response with a structured
	// field-error list.
	CategoryValidation

	// CategoryServer is any response with status 500 or above.
	CategoryServer

	// CategoryEmptyResponse is a 2xx submission response with an empty
	// body; the gateway accepting the call is not sufficient.
	CategoryEmptyResponse
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransport:
		return "transport"
	case CategoryUnauthorized:
		return "unauthorized"
	case CategoryForbidden:
		return "forbidden"
	case CategoryNotFound:
		return "not-found"
	case CategoryValidation:
		return "validation"
	case CategoryServer:
		return "server"
	case CategoryEmptyResponse:
		return "empty-response"
	default:
		return fmt.Sprintf("category(%d)", c)
	}
}

// FieldError is one entry of a structured validation detail list.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// String renders the entry as "items.0.price: required".
func (f FieldError) String() string {
	msg := f.Msg
	if msg == "" {
		msg = f.Type
	}
	if msg == "" {
		msg = "invalid"
	}
	if len(f.Loc) == 0 {
		return msg
	}
	parts := make([]string, len(f.Loc))
	for i, p := range f.Loc {
		switch v := p.(type) {
		case string:
			parts[i] = v
		case float64:
			parts[i] = fmt.Sprintf("%d", int64(v))
		default:
			parts[i] = fmt.Sprintf("%v", v)
		}
	}
	return strings.Join(parts, ".") + ": " + msg
}

// APIError is a classified gateway failure. Every failed call returns
// one; no raw transport error crosses the gateway boundary.
type APIError struct {
	Status   int
	Category Category
	Message  string
	Fields   []FieldError
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("tablecrm: %s (status %d)", e.Message, e.Status)
	}
	return "tablecrm: " + e.Message
}

// Advisory returns the single human-readable line shown to the
// operator.
func (e *APIError) Advisory() string { return e.Message }

// Advisory extracts the user-visible advisory from any error returned
// by the gateway. Non-APIError failures surface their raw message
// verbatim.
func Advisory(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Advisory()
	}
	return err.Error()
}

// CategoryOf returns the classification of an error, defaulting to
// CategoryTransport for anything unstructured.
func CategoryOf(err error) Category {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Category
	}
	return CategoryTransport
}

// errorBody is the error envelope the API returns. detail is either a
// string or an array of strings and/or field-error objects.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// classify maps a non-2xx response to an APIError.
func classify(status int, body []byte) *APIError {
	detail, fields, detailStr := parseDetail(body)

	switch {
	case status == 401:
		return &APIError{Status: status, Category: CategoryUnauthorized, Message: "authorization failed, check the token"}
	case status == 403:
		return &APIError{Status: status, Category: CategoryForbidden, Message: "access denied: insufficient rights"}
	case status == 404:
		return &APIError{Status: status, Category: CategoryNotFound, Message: "endpoint not found, check the API configuration"}
	case status == 400 || status == 422:
		msg := detail
		if msg == "" {
			msg = "invalid request data, check the entered fields"
		} else {
			msg = "validation failed: " + msg
		}
		return &APIError{Status: status, Category: CategoryValidation, Message: msg, Fields: fields}
	case status >= 500:
		return &APIError{Status: status, Category: CategoryServer, Message: "server error, try again later"}
	default:
		msg := detailStr
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", status)
		}
		return &APIError{Status: status, Category: CategoryTransport, Message: msg}
	}
}

// transportError wraps a failure that produced no structured response.
func transportError(err error) *APIError {
	return &APIError{Category: CategoryTransport, Message: err.Error()}
}

// parseDetail reads the error envelope. It returns the joined detail
// text, the structured field errors when present, and the best plain
// fallback message for statuses outside the validation range.
func parseDetail(body []byte) (joined string, fields []FieldError, fallback string) {
	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", nil, ""
	}
	fallback = envelope.Message

	if len(envelope.Detail) == 0 {
		return "", nil, fallback
	}

	var asString string
	if err := json.Unmarshal(envelope.Detail, &asString); err == nil {
		return asString, nil, asString
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(envelope.Detail, &entries); err != nil {
		return "", nil, fallback
	}

	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		var s string
		if err := json.Unmarshal(entry, &s); err == nil {
			parts = append(parts, s)
			continue
		}
		var fe FieldError
		if err := json.Unmarshal(entry, &fe); err == nil {
			fields = append(fields, fe)
			parts = append(parts, fe.String())
			continue
		}
		parts = append(parts, string(entry))
	}
	joined = strings.Join(parts, ", ")
	if fallback == "" {
		fallback = joined
	}
	return joined, fields, fallback
}
