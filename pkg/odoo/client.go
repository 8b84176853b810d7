// Package odoo provides JSON-RPC access to an Odoo server's object store.
package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the Odoo RPC operations used by the pipeline.
type Client interface {
	Search(ctx context.Context, model string, domain Domain, limit int) ([]int64, error)
	SearchRead(ctx context.Context, model string, domain Domain, fields []string, limit int) ([]Record, error)
	Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error)
	Create(ctx context.Context, model string, values []Record) ([]int64, error)
	Write(ctx context.Context, model string, ids []int64, values Record) error
	FieldsGet(ctx context.Context, model string, attributes []string) (map[string]FieldMeta, error)
	// Exec invokes a model method that is a workflow trigger rather than a
	// CRUD operation, e.g. mail.mail send.
	Exec(ctx context.Context, model, method string, ids []int64) error
}

// Record is a generic Odoo record: field name to value.
type Record map[string]any

// FieldMeta holds field metadata returned by fields_get.
type FieldMeta struct {
	Label string `json:"string"`
	Type  string `json:"type"`
}

// Config holds connection and session settings for one Odoo instance.
type Config struct {
	URL      string
	Database string
	Username string
	Password string
	Timeout  time.Duration
}

// ClientOption configures the Odoo client.
type ClientOption func(*rpcClient)

// WithRateLimit sets a per-second rate limit for RPC calls.
// A burst equal to the integer portion of rps is allowed.
func WithRateLimit(rps float64) ClientOption {
	return func(c *rpcClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithHTTPClient overrides the HTTP client used for RPC calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *rpcClient) {
		c.http = hc
	}
}

// rpcClient speaks Odoo's /jsonrpc endpoint. The session is a lazily
// established uid from common.login; every execute_kw call re-sends the
// database and password, which is how Odoo's external API authenticates.
type rpcClient struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter

	mu  sync.Mutex
	uid int64
}

// NewClient creates an Odoo client for the given instance. Login happens
// lazily on the first call; use Login to verify credentials up front.
func NewClient(cfg Config, opts ...ClientOption) Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	c := &rpcClient{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int       `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Message string `json:"message"`
	} `json:"data"`
}

func (e *rpcError) String() string {
	if e.Data.Message != "" {
		return e.Data.Message
	}
	return e.Message
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *rpcClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// call performs one JSON-RPC round trip and decodes the result into out.
func (c *rpcClient) call(ctx context.Context, service, method string, args []any, out any) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "odoo: rate limit")
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      1,
	})
	if err != nil {
		return eris.Wrap(err, "odoo: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/jsonrpc", bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "odoo: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "odoo: rpc request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return eris.Errorf("odoo: rpc status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "odoo: read response")
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return eris.Wrap(err, "odoo: decode response")
	}
	if rpcResp.Error != nil {
		return eris.New(fmt.Sprintf("odoo: server error: %s", rpcResp.Error.String()))
	}
	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return eris.Wrap(err, "odoo: decode result")
	}
	return nil
}

// Login authenticates against common.login and caches the uid.
func (c *rpcClient) Login(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

func (c *rpcClient) loginLocked(ctx context.Context) (int64, error) {
	if c.uid != 0 {
		return c.uid, nil
	}

	// Odoo returns false (not an error) on bad credentials, so decode loosely.
	var result any
	err := c.call(ctx, "common", "login",
		[]any{c.cfg.Database, c.cfg.Username, c.cfg.Password}, &result)
	if err != nil {
		return 0, eris.Wrap(err, "odoo: login")
	}
	uid, ok := asInt64(result)
	if !ok || uid == 0 {
		return 0, eris.Errorf("odoo: login rejected for %q on %q", c.cfg.Username, c.cfg.Database)
	}
	c.uid = uid
	return uid, nil
}

// executeKw invokes object.execute_kw for the given model method.
func (c *rpcClient) executeKw(ctx context.Context, model, method string, args []any, kwargs map[string]any, out any) error {
	c.mu.Lock()
	uid, err := c.loginLocked(ctx)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	callArgs := []any{c.cfg.Database, uid, c.cfg.Password, model, method, args}
	if len(kwargs) > 0 {
		callArgs = append(callArgs, kwargs)
	}
	if err := c.call(ctx, "object", "execute_kw", callArgs, out); err != nil {
		return eris.Wrap(err, fmt.Sprintf("odoo: %s.%s", model, method))
	}
	return nil
}

func (c *rpcClient) Search(ctx context.Context, model string, domain Domain, limit int) ([]int64, error) {
	kwargs := map[string]any{}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	var ids []int64
	if err := c.executeKw(ctx, model, "search", []any{domain.args()}, kwargs, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *rpcClient) SearchRead(ctx context.Context, model string, domain Domain, fields []string, limit int) ([]Record, error) {
	kwargs := map[string]any{}
	if len(fields) > 0 {
		kwargs["fields"] = fields
	}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	var recs []Record
	if err := c.executeKw(ctx, model, "search_read", []any{domain.args()}, kwargs, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *rpcClient) Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error) {
	args := []any{ids}
	if len(fields) > 0 {
		args = append(args, fields)
	}
	var recs []Record
	if err := c.executeKw(ctx, model, "read", args, nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *rpcClient) Create(ctx context.Context, model string, values []Record) ([]int64, error) {
	if len(values) == 0 {
		return nil, nil
	}
	// Odoo returns a bare id for a single-record create and a list otherwise.
	var result json.RawMessage
	if err := c.executeKw(ctx, model, "create", []any{values}, nil, &result); err != nil {
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal(result, &ids); err == nil {
		return ids, nil
	}
	var id int64
	if err := json.Unmarshal(result, &id); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("odoo: decode %s create result", model))
	}
	return []int64{id}, nil
}

func (c *rpcClient) Write(ctx context.Context, model string, ids []int64, values Record) error {
	return c.executeKw(ctx, model, "write", []any{ids, values}, nil, nil)
}

func (c *rpcClient) Exec(ctx context.Context, model, method string, ids []int64) error {
	return c.executeKw(ctx, model, method, []any{ids}, nil, nil)
}

func (c *rpcClient) FieldsGet(ctx context.Context, model string, attributes []string) (map[string]FieldMeta, error) {
	kwargs := map[string]any{}
	if len(attributes) > 0 {
		kwargs["attributes"] = attributes
	}
	var meta map[string]FieldMeta
	if err := c.executeKw(ctx, model, "fields_get", []any{}, kwargs, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
