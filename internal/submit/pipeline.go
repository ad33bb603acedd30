// Package submit drives a composed order through validation, payload
// normalization, the gateway call, and result classification.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Danokray/Tablecrm/internal/cart"
	"github.com/Danokray/Tablecrm/internal/domain/ident"
	"github.com/Danokray/Tablecrm/internal/domain/order"
	"github.com/Danokray/Tablecrm/internal/gateway"
	"github.com/Danokray/Tablecrm/internal/session"
)

// ErrInFlight is returned when a submit intent arrives while a
// submission is already running. The intent is ignored: no queueing,
// no cancellation of the running call.
var ErrInFlight = errors.New("submit: submission already in progress")

// Status is the pipeline lifecycle status.
type Status int32

const (
	// StatusIdle indicates no submission is running.
	StatusIdle Status = iota

	// StatusValidating indicates the required selections are being
	// checked.
	StatusValidating

	// StatusSubmitting indicates the gateway call is in flight.
	StatusSubmitting

	// StatusSucceeded indicates the sale was created and echoed.
	StatusSucceeded

	// StatusFailed indicates the submission failed; cart and session
	// are untouched.
	StatusFailed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusValidating:
		return "validating"
	case StatusSubmitting:
		return "submitting"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", s)
	}
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Gateway is the slice of the API client the pipeline needs.
type Gateway interface {
	CreateSale(ctx context.Context, payload order.SalePayload, conduct bool) (json.RawMessage, error)
}

// Result is the classified outcome of one submit intent.
type Result struct {
	// OK is true only when the sale was created and a non-empty echo
	// was received.
	OK bool

	// Advisory is the user-visible message for this outcome, success
	// or failure.
	Advisory string

	// Category classifies a gateway failure; meaningful only when OK
	// is false and the gateway was reached.
	Category gateway.Category

	// Echo is the raw created record echoed by the server.
	Echo json.RawMessage
}

// Pipeline validates, builds, and submits sale documents. At most one
// submission is in flight at a time.
type Pipeline struct {
	session *session.Session
	cart    *cart.Cart
	gw      Gateway

	mu       sync.Mutex
	status   Status
	onChange func(Status)
}

// New creates a pipeline over the given session, cart, and gateway.
func New(sess *session.Session, c *cart.Cart, gw Gateway) *Pipeline {
	return &Pipeline{session: sess, cart: c, gw: gw, status: StatusIdle}
}

// OnChange registers a status listener, called without the pipeline
// lock held.
func (p *Pipeline) OnChange(fn func(Status)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// Status returns the current pipeline status.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Submit runs one submission. conduct false saves a draft, true saves
// and posts. Validation failures return an advisory Result without
// contacting the gateway. The pipeline is back to idle by the time the
// Result is returned; the terminal state is observable through
// OnChange.
func (p *Pipeline) Submit(ctx context.Context, conduct bool) (Result, error) {
	p.mu.Lock()
	if p.status == StatusSubmitting || p.status == StatusValidating {
		p.mu.Unlock()
		return Result{}, ErrInFlight
	}
	p.status = StatusValidating
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn(StatusValidating)
	}

	if advisory, ok := p.validate(); !ok {
		p.setStatus(StatusIdle)
		return Result{OK: false, Advisory: advisory}, nil
	}

	payload, err := BuildPayload(p.session, p.cart.Items())
	if err != nil {
		p.setStatus(StatusIdle)
		return Result{OK: false, Advisory: "failed to prepare the sale: " + err.Error()}, nil
	}

	p.setStatus(StatusSubmitting)
	echo, err := p.gw.CreateSale(ctx, payload, conduct)
	if err != nil {
		p.setStatus(StatusFailed)
		p.setStatus(StatusIdle)
		return Result{
			OK:       false,
			Advisory: "failed to create the sale: " + gateway.Advisory(err),
			Category: gateway.CategoryOf(err),
		}, nil
	}

	if emptyEcho(echo) {
		p.setStatus(StatusFailed)
		p.setStatus(StatusIdle)
		return Result{
			OK:       false,
			Advisory: "failed to create the sale: empty server response",
			Category: gateway.CategoryEmptyResponse,
		}, nil
	}

	// Confirmed success: the order state is consumed, the credential
	// survives.
	p.cart.Clear()
	p.session.ResetOrder()

	advisory := "sale created"
	if conduct {
		advisory = "sale created and conducted"
	}
	p.setStatus(StatusSucceeded)
	p.setStatus(StatusIdle)
	return Result{OK: true, Advisory: advisory, Echo: echo}, nil
}

// validate checks the preconditions in the order the operator sees
// them: required selections, then cart, then credential.
func (p *Pipeline) validate() (string, bool) {
	if _, ok := p.session.Client(); !ok || !p.session.Complete() {
		return "fill in all required fields", false
	}
	if p.cart.Len() == 0 {
		return "add products to the order", false
	}
	if p.session.Token() == "" {
		return "token is not set", false
	}
	return "", true
}

// BuildPayload normalizes the session selections and cart lines into
// the submission payload. Identifier coercion happens here and only
// here; numeric fields fall back to safe defaults (quantity 1, price
// 0) instead of propagating a bad value into the request.
func BuildPayload(sess *session.Session, items []cart.LineItem) (order.SalePayload, error) {
	client, ok := sess.Client()
	if !ok {
		return order.SalePayload{}, fmt.Errorf("submit: no client resolved")
	}
	contragent, err := ident.Normalize(client.ID)
	if err != nil {
		return order.SalePayload{}, fmt.Errorf("submit: client id: %w", err)
	}

	payload := order.SalePayload{Contragent: contragent}
	dims := []struct {
		kind order.ReferenceKind
		dst  *ident.ID
	}{
		{order.KindPaybox, &payload.Pbox},
		{order.KindOrganization, &payload.Organization},
		{order.KindWarehouse, &payload.Warehouse},
		{order.KindPriceType, &payload.PriceType},
	}
	for _, dim := range dims {
		id, ok := sess.Selection(dim.kind)
		if !ok {
			return order.SalePayload{}, fmt.Errorf("submit: %s not selected", dim.kind)
		}
		normalized, err := ident.Normalize(id)
		if err != nil {
			return order.SalePayload{}, fmt.Errorf("submit: %s id: %w", dim.kind, err)
		}
		*dim.dst = normalized
	}

	payload.Items = make([]order.SaleItem, 0, len(items))
	for _, item := range items {
		nom, err := ident.Normalize(item.ProductID)
		if err != nil {
			return order.SalePayload{}, fmt.Errorf("submit: product id: %w", err)
		}
		quantity := item.Quantity.InexactFloat64()
		if quantity == 0 {
			quantity = 1
		}
		price := item.UnitPrice.InexactFloat64()
		if price < 0 {
			price = 0
		}
		payload.Items = append(payload.Items, order.SaleItem{
			Nomenclature: nom,
			Quantity:     quantity,
			Price:        price,
		})
	}
	return payload, nil
}

// emptyEcho reports whether a 2xx response body carries no echoed
// record. The gateway accepting the call is not sufficient.
func emptyEcho(echo json.RawMessage) bool {
	trimmed := bytes.TrimSpace(echo)
	switch {
	case len(trimmed) == 0:
		return true
	case bytes.Equal(trimmed, []byte("null")):
		return true
	case bytes.Equal(trimmed, []byte("[]")):
		return true
	case bytes.Equal(trimmed, []byte("{}")):
		return true
	case bytes.Equal(trimmed, []byte(`""`)):
		return true
	}
	return false
}

// setStatus updates the status and notifies the listener in order,
// without the lock held.
func (p *Pipeline) setStatus(status Status) {
	p.mu.Lock()
	p.status = status
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn(status)
	}
}
