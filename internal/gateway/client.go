// Package gateway provides the TableCRM REST API client. It owns the
// transport concerns the rest of the engine must never see: bearer
// credential attachment, response envelope unwrapping, and failure
// classification.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Danokray/Tablecrm/internal/domain/order"
)

const (
	// DefaultBaseURL is the production TableCRM API root.
	DefaultBaseURL = "https://app.tablecrm.com/api/v1"

	defaultTimeout     = 30 * time.Second
	defaultMaxBodySize = 8 << 20
)

// Config holds client configuration.
type Config struct {
	// BaseURL is the API root, e.g. https://app.tablecrm.com/api/v1.
	BaseURL string

	// Token is the opaque bearer credential attached to every call.
	Token string

	// HTTPClient is used to execute requests. When nil, a default
	// client with a conservative timeout is used.
	HTTPClient *http.Client

	// MaxBodyBytes caps response bodies. Zero applies the default.
	MaxBodyBytes int64
}

// Client is the TableCRM API client. Callers may assume every list
// endpoint returns a flat sequence, never an envelope, and that every
// failure is already classified into *APIError.
type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	maxBodyBytes int64
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("gateway: BaseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("gateway: BaseURL must be a valid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("gateway: BaseURL scheme must be http or https")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("gateway: Token is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodySize
	}

	return &Client{
		baseURL:      baseURL,
		token:        strings.TrimSpace(cfg.Token),
		httpClient:   httpClient,
		maxBodyBytes: maxBodyBytes,
	}, nil
}

// =============================================================================
// Endpoints
// =============================================================================

// ListReference fetches the reference list for one kind.
func (c *Client) ListReference(ctx context.Context, kind order.ReferenceKind) ([]order.ReferenceEntry, error) {
	path := kind.Path()
	if path == "" {
		return nil, fmt.Errorf("gateway: unknown reference kind %d", kind)
	}
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[order.ReferenceEntry](body)
}

// AllClients fetches the unfiltered contragent roster. This is the
// full-listing path used when the client search surface gains focus
// with an empty query.
func (c *Client) AllClients(ctx context.Context) ([]order.Client, error) {
	body, err := c.get(ctx, "/contragents/", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[order.Client](body)
}

// SearchClients fetches contragents filtered by phone. The filter is
// sent under every parameter name the API has accepted historically.
func (c *Client) SearchClients(ctx context.Context, phone string) ([]order.Client, error) {
	phone = strings.TrimSpace(phone)
	params := url.Values{}
	params.Set("phone", phone)
	params.Set("phone_number", phone)
	params.Set("q", phone)
	params.Set("search", phone)

	body, err := c.get(ctx, "/contragents/", params)
	if err != nil {
		return nil, err
	}
	return decodeList[order.Client](body)
}

// SearchProducts fetches nomenclature filtered by name.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]order.Product, error) {
	query = strings.TrimSpace(query)
	params := url.Values{}
	params.Set("search", query)
	params.Set("q", query)
	params.Set("name", query)

	body, err := c.get(ctx, "/nomenclature/", params)
	if err != nil {
		return nil, err
	}
	return decodeList[order.Product](body)
}

// saleDocument is the wire form of one sale; the API takes an array of
// documents with the conduct flag repeated per element.
type saleDocument struct {
	order.SalePayload
	Conduct bool `json:"conduct"`
}

// CreateSale posts the sale document. conduct false saves a draft,
// true saves and posts the transaction. The raw echoed record is
// returned for the submission pipeline to judge.
func (c *Client) CreateSale(ctx context.Context, payload order.SalePayload, conduct bool) (json.RawMessage, error) {
	docs := []saleDocument{{SalePayload: payload, Conduct: conduct}}
	return c.post(ctx, "/docs_sales/", docs)
}

// =============================================================================
// Transport
// =============================================================================

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path, params), nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: create request: %w", err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path, nil), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gateway: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// buildURL appends the token query parameter; the API historically
// reads the credential from the query as well as the header.
func (c *Client) buildURL(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("token", c.token)
	return c.baseURL + path + "?" + params.Encode()
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return nil, transportError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return nil, classify(resp.StatusCode, body)
	}
	return body, nil
}

// =============================================================================
// Envelope unwrapping
// =============================================================================

// envelopeFields are the named list fields the API wraps results in,
// tried in fixed priority order after a raw array.
var envelopeFields = []string{"result", "results", "data", "items"}

// unwrapList extracts the flat element list from a response that is
// either a raw JSON array or an envelope object.
func unwrapList(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("gateway: decode list: %w", err)
		}
		return list, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("gateway: decode envelope: %w", err)
	}
	for _, field := range envelopeFields {
		raw, ok := envelope[field]
		if !ok || len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		inner := bytes.TrimSpace(raw)
		if inner[0] != '[' {
			continue
		}
		var list []json.RawMessage
		if err := json.Unmarshal(inner, &list); err != nil {
			return nil, fmt.Errorf("gateway: decode %s list: %w", field, err)
		}
		return list, nil
	}
	return nil, nil
}

func decodeList[T any](body []byte) ([]T, error) {
	raw, err := unwrapList(body)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for i, entry := range raw {
		var item T
		if err := json.Unmarshal(entry, &item); err != nil {
			return nil, fmt.Errorf("gateway: decode element %d: %w", i, err)
		}
		out = append(out, item)
	}
	return out, nil
}
