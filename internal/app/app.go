// Package app wires the engine together: gateway, reference data,
// search surfaces, cart, and the submission pipeline behind one
// facade the terminal shell drives.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Danokray/Tablecrm/internal/cart"
	"github.com/Danokray/Tablecrm/internal/config"
	"github.com/Danokray/Tablecrm/internal/credstore"
	"github.com/Danokray/Tablecrm/internal/domain/ident"
	"github.com/Danokray/Tablecrm/internal/domain/order"
	"github.com/Danokray/Tablecrm/internal/gateway"
	"github.com/Danokray/Tablecrm/internal/notify"
	"github.com/Danokray/Tablecrm/internal/refdata"
	"github.com/Danokray/Tablecrm/internal/search"
	"github.com/Danokray/Tablecrm/internal/session"
	"github.com/Danokray/Tablecrm/internal/submit"
)

// Option configures the engine.
type Option func(*Engine)

// WithHTTPClient overrides the HTTP client used for the gateway.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Engine) { e.httpClient = hc }
}

// WithScheduler injects the timer used for search debouncing and note
// dismissal, for tests.
func WithScheduler(fn func(d time.Duration, f func()) func() bool) Option {
	return func(e *Engine) { e.afterFunc = fn }
}

// WithClientListener registers a listener for client-search snapshots.
func WithClientListener(fn func(search.Snapshot[order.Client])) Option {
	return func(e *Engine) { e.onClients = fn }
}

// WithProductListener registers a listener for product-search snapshots.
func WithProductListener(fn func(search.Snapshot[order.Product])) Option {
	return func(e *Engine) { e.onProducts = fn }
}

// WithSubmitListener registers a listener for submission status changes.
func WithSubmitListener(fn func(submit.Status)) Option {
	return func(e *Engine) { e.onSubmit = fn }
}

// WithNoteListener registers a listener for the active advisory notes.
func WithNoteListener(fn func([]notify.Note)) Option {
	return func(e *Engine) { e.onNotes = fn }
}

// Engine is the composition root. One engine serves one operator
// session.
type Engine struct {
	cfg   *config.Config
	store *credstore.Store
	sess  *session.Session
	cart  *cart.Cart
	notes *notify.Center

	httpClient *http.Client
	afterFunc  func(d time.Duration, f func()) func() bool
	onClients  func(search.Snapshot[order.Client])
	onProducts func(search.Snapshot[order.Product])
	onSubmit   func(submit.Status)
	onNotes    func([]notify.Note)

	mu       sync.Mutex
	gw       *gateway.Client
	refs     refdata.Set
	clients  *search.Coordinator[order.Client]
	products *search.Coordinator[order.Product]
	pipeline *submit.Pipeline
}

// New creates an engine. The engine is inert until Authenticate
// succeeds.
func New(cfg *config.Config, store *credstore.Store, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Engine{
		cfg:   cfg,
		store: store,
		sess:  session.New(""),
		cart:  cart.New(),
	}
	for _, opt := range opts {
		opt(e)
	}

	notifyOpts := []notify.Option{notify.WithDismissAfter(cfg.Notify.Dismiss.Std())}
	if e.afterFunc != nil {
		notifyOpts = append(notifyOpts, notify.WithAfterFunc(e.afterFunc))
	}
	if e.onNotes != nil {
		notifyOpts = append(notifyOpts, notify.WithOnChange(e.onNotes))
	}
	e.notes = notify.New(notifyOpts...)
	return e
}

// StoredToken returns the token persisted by a previous session, if
// any.
func (e *Engine) StoredToken() string {
	if e.store == nil {
		return ""
	}
	token, err := e.store.Load()
	if err != nil {
		log.Printf("[app] failed to load stored token: %v", err)
		return ""
	}
	return token
}

// Authenticate validates the token by loading the reference data and,
// on success, arms the search surfaces and the submission pipeline.
// The token is persisted only after the reference load proves it
// usable.
func (e *Engine) Authenticate(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		e.notes.Error("token is required")
		return fmt.Errorf("token is required")
	}

	hc := e.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: e.cfg.API.Timeout.Std()}
	}
	gw, err := gateway.New(gateway.Config{
		BaseURL:    e.cfg.API.BaseURL,
		Token:      token,
		HTTPClient: hc,
	})
	if err != nil {
		e.notes.Error(err.Error())
		return err
	}

	refs, perr := refdata.Load(ctx, gw)
	if perr != nil && perr.AllMissing() {
		e.notes.Error(perr.Advisory())
		return perr
	}

	clients, err := e.buildClientSearch(gw)
	if err != nil {
		e.notes.Error(err.Error())
		return fmt.Errorf("client search: %w", err)
	}
	products, err := e.buildProductSearch(gw)
	if err != nil {
		e.notes.Error(err.Error())
		return fmt.Errorf("product search: %w", err)
	}

	if e.store != nil {
		if err := e.store.Save(token); err != nil {
			log.Printf("[app] failed to persist token: %v", err)
		}
	}

	e.mu.Lock()
	e.sess.SetToken(token)
	e.gw = gw
	e.refs = refs
	e.clients = clients
	e.products = products
	e.pipeline = submit.New(e.sess, e.cart, gw)
	if e.onSubmit != nil {
		e.pipeline.OnChange(e.onSubmit)
	}
	e.mu.Unlock()

	if perr != nil {
		e.notes.Error(perr.Advisory())
	}
	log.Printf("[app] authenticated against %s", e.cfg.API.BaseURL)
	return nil
}

// buildClientSearch arms the client surface. Short queries reset it
// silently; only a sufficiently long phone fragment with zero matches
// earns the not-found advisory.
func (e *Engine) buildClientSearch(gw *gateway.Client) (*search.Coordinator[order.Client], error) {
	return search.New(search.Config[order.Client]{
		MinLength:         e.cfg.Search.ClientMinLength,
		Debounce:          e.cfg.Search.ClientDebounce.Std(),
		Search:            gw.SearchClients,
		ListAll:           gw.AllClients,
		NotFoundAdvisory:  "no client with this phone number",
		NotFoundMinLength: e.cfg.Search.ClientMinLength,
		AdvisoryFor:       gateway.Advisory,
		AfterFunc:         e.afterFunc,
		OnChange:          e.onClients,
	})
}

// buildProductSearch arms the product surface. It nudges on short
// queries but stays quiet on zero matches.
func (e *Engine) buildProductSearch(gw *gateway.Client) (*search.Coordinator[order.Product], error) {
	return search.New(search.Config[order.Product]{
		MinLength:          e.cfg.Search.ProductMinLength,
		Debounce:           e.cfg.Search.ProductDebounce.Std(),
		Search:             gw.SearchProducts,
		ShortQueryAdvisory: fmt.Sprintf("enter at least %d characters", e.cfg.Search.ProductMinLength),
		AdvisoryFor:        gateway.Advisory,
		AfterFunc:          e.afterFunc,
		OnChange:           e.onProducts,
	})
}

// Ready reports whether Authenticate has succeeded.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gw != nil
}

// References returns the loaded entries for one dimension, in the
// order the server returned them.
func (e *Engine) References(kind order.ReferenceKind) []order.ReferenceEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refs[kind]
}

// SelectReference records the operator's pick for one dimension.
func (e *Engine) SelectReference(kind order.ReferenceKind, id ident.ID) {
	e.sess.Select(kind, id)
}

// ClientSearch returns the client lookup surface. Nil before
// authentication.
func (e *Engine) ClientSearch() *search.Coordinator[order.Client] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clients
}

// ProductSearch returns the product lookup surface. Nil before
// authentication.
func (e *Engine) ProductSearch() *search.Coordinator[order.Product] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.products
}

// SelectClient commits the i-th client candidate to the session and
// resets the lookup surface.
func (e *Engine) SelectClient(i int) (order.Client, bool) {
	c := e.ClientSearch()
	if c == nil {
		return order.Client{}, false
	}
	client, ok := c.Select(i)
	if !ok {
		return order.Client{}, false
	}
	e.sess.SetClient(client)
	return client, true
}

// AddProduct adds the i-th product candidate to the cart with
// quantity one (merging with an existing line) and resets the lookup
// surface.
func (e *Engine) AddProduct(i int) (order.Product, bool) {
	c := e.ProductSearch()
	if c == nil {
		return order.Product{}, false
	}
	product, ok := c.Select(i)
	if !ok {
		return order.Product{}, false
	}
	e.cart.Add(product, decimal.NewFromInt(1))
	return product, true
}

// Cart returns the order's line items.
func (e *Engine) Cart() *cart.Cart { return e.cart }

// Session returns the operator session.
func (e *Engine) Session() *session.Session { return e.sess }

// Notes returns the advisory center.
func (e *Engine) Notes() *notify.Center { return e.notes }

// SubmitStatus returns the pipeline status, or idle before
// authentication.
func (e *Engine) SubmitStatus() submit.Status {
	e.mu.Lock()
	p := e.pipeline
	e.mu.Unlock()
	if p == nil {
		return submit.StatusIdle
	}
	return p.Status()
}

// Submit runs the sale through the pipeline and surfaces the outcome
// as a note. Rejected submissions (already in flight) surface nothing.
func (e *Engine) Submit(ctx context.Context, conduct bool) (submit.Result, error) {
	e.mu.Lock()
	p := e.pipeline
	e.mu.Unlock()
	if p == nil {
		return submit.Result{}, fmt.Errorf("not authenticated")
	}

	res, err := p.Submit(ctx, conduct)
	if err != nil {
		return res, err
	}
	if res.OK {
		e.notes.Success(res.Advisory)
	} else {
		e.notes.Error(res.Advisory)
	}
	return res, nil
}

// Logout clears the persisted token and returns the engine to its
// inert state.
func (e *Engine) Logout() {
	if e.store != nil {
		if err := e.store.Clear(); err != nil {
			log.Printf("[app] failed to clear stored token: %v", err)
		}
	}

	e.mu.Lock()
	if e.clients != nil {
		e.clients.Cancel()
	}
	if e.products != nil {
		e.products.Cancel()
	}
	e.gw = nil
	e.refs = nil
	e.clients = nil
	e.products = nil
	e.pipeline = nil
	e.mu.Unlock()

	e.cart.Clear()
	e.sess.Logout()
	log.Printf("[app] logged out")
}
