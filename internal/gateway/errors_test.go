package gateway

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassifyStatuses(t *testing.T) {
	tests := []struct {
		status   int
		body     string
		category Category
		contains string
	}{
		{401, `{}`, CategoryUnauthorized, "check the token"},
		{403, `{}`, CategoryForbidden, "insufficient rights"},
		{404, `{}`, CategoryNotFound, "not found"},
		{500, `{}`, CategoryServer, "try again later"},
		{503, ``, CategoryServer, "try again later"},
		{400, `{"detail": "bad payload"}`, CategoryValidation, "bad payload"},
		{422, `{"detail": ["first", "second"]}`, CategoryValidation, "first, second"},
		{418, `{"message": "teapot"}`, CategoryTransport, "teapot"},
		{418, `{}`, CategoryTransport, "status 418"},
	}

	for _, tc := range tests {
		err := classify(tc.status, []byte(tc.body))
		if err.Category != tc.category {
			t.Errorf("status %d: category = %v, want %v", tc.status, err.Category, tc.category)
		}
		if !strings.Contains(err.Message, tc.contains) {
			t.Errorf("status %d: message %q does not contain %q", tc.status, err.Message, tc.contains)
		}
	}
}

func TestClassifyValidationFieldErrors(t *testing.T) {
	body := `{"detail": [{"loc": ["items", 0, "price"], "msg": "required"}]}`
	err := classify(422, []byte(body))

	if err.Category != CategoryValidation {
		t.Fatalf("category = %v, want validation", err.Category)
	}
	if !strings.Contains(err.Message, "items.0.price: required") {
		t.Errorf("message %q should contain the joined field path", err.Message)
	}
	if len(err.Fields) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(err.Fields))
	}
	if got := err.Fields[0].String(); got != "items.0.price: required" {
		t.Errorf("field error = %q", got)
	}
}

func TestClassifyMixedDetailEntries(t *testing.T) {
	body := `{"detail": ["plain text", {"loc": ["contragent"], "msg": "unknown id"}]}`
	err := classify(422, []byte(body))
	if !strings.Contains(err.Message, "plain text") || !strings.Contains(err.Message, "contragent: unknown id") {
		t.Errorf("message %q should join string and object entries", err.Message)
	}
}

func TestFieldErrorFallbacks(t *testing.T) {
	tests := []struct {
		fe   FieldError
		want string
	}{
		{FieldError{Loc: []any{"body", float64(2)}, Type: "value_error"}, "body.2: value_error"},
		{FieldError{Msg: "broken"}, "broken"},
		{FieldError{Loc: []any{"x"}}, "x: invalid"},
	}
	for _, tc := range tests {
		if got := tc.fe.String(); got != tc.want {
			t.Errorf("FieldError = %q, want %q", got, tc.want)
		}
	}
}

func TestAdvisoryAndCategoryOf(t *testing.T) {
	apiErr := &APIError{Status: 401, Category: CategoryUnauthorized, Message: "authorization failed, check the token"}
	wrapped := fmt.Errorf("list payboxes: %w", apiErr)

	if got := Advisory(wrapped); got != apiErr.Message {
		t.Errorf("Advisory = %q, want the classified message", got)
	}
	if got := CategoryOf(wrapped); got != CategoryUnauthorized {
		t.Errorf("CategoryOf = %v, want unauthorized", got)
	}

	plain := errors.New("dial tcp: connection refused")
	if got := Advisory(plain); got != plain.Error() {
		t.Errorf("transport advisory should surface the raw message, got %q", got)
	}
	if got := CategoryOf(plain); got != CategoryTransport {
		t.Errorf("CategoryOf(plain) = %v, want transport", got)
	}
}

func TestCategoryString(t *testing.T) {
	if CategoryEmptyResponse.String() != "empty-response" {
		t.Errorf("unexpected name: %s", CategoryEmptyResponse)
	}
	if Category(42).String() != "category(42)" {
		t.Errorf("unexpected fallback: %s", Category(42))
	}
}
