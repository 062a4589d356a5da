package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/akeil/syfix"
	"github.com/akeil/syfix/internal/logging"
)

// Defaults
const (
	DefaultBaseURL     = "http://127.0.0.1:6806"
	DefaultConcurrency = 500
	DefaultTimeout     = 30 * time.Second
)

// API endpoints
const (
	epListNotebooks = "/api/notebook/lsNotebooks"
	epPathByID      = "/api/filetree/getPathByID"
	epKramdown      = "/api/block/getBlockKramdown"
	epUpdate        = "/api/block/updateBlock"
	epInsert        = "/api/block/insertBlock"
	epDelete        = "/api/block/deleteBlock"
	epChildren      = "/api/block/getChildBlocks"
)

const dataTypeMarkdown = "markdown"

// Config holds the settings for a Client.
// The zero value of a field selects the default.
type Config struct {
	// BaseURL is the address of the SiYuan kernel.
	BaseURL string
	// Token is the API token from the SiYuan settings.
	// It can be empty if the kernel does not require authentication.
	Token string
	// Concurrency is the maximum number of requests in flight.
	// The limit is shared by all callers of the same Client.
	Concurrency int64
	// Timeout applies to each single request.
	Timeout time.Duration
	// RequestsPerSecond throttles requests if it is greater than zero.
	RequestsPerSecond float64
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Validate checks the settings for obvious errors.
func (c Config) Validate() error {
	_, err := resolve(c.BaseURL, epListNotebooks)
	if err != nil {
		return syfix.NewValidationError("invalid base URL %q: %v", c.BaseURL, err)
	}
	if c.RequestsPerSecond < 0 {
		return syfix.NewValidationError("requests per second must not be negative")
	}
	return nil
}

// Client represents the HTTP API of a SiYuan kernel.
//
// A Client is safe for concurrent use.
type Client struct {
	cfg     Config
	client  *http.Client
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// NewClient sets up an API client with the given settings.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		client: &http.Client{},
		sem:    semaphore.NewWeighted(cfg.Concurrency),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return c, nil
}

// Config returns the effective settings for this client.
func (c *Client) Config() Config {
	return c.cfg
}

// Notebooks ------------------------------------------------------------------

// ListNotebooks retrieves all notebooks.
func (c *Client) ListNotebooks(ctx context.Context) ([]syfix.Notebook, error) {
	var res notebookList
	err := c.request(ctx, epListNotebooks, struct{}{}, &res)
	if err != nil {
		return nil, err
	}

	logging.Debug("List notebooks returned %d items", len(res.Notebooks))
	return res.Notebooks, nil
}

// PathByID returns the path of the document file that contains the given
// block, relative to the notebook directory.
//
// Returns a LookupError if the service does not know the block.
func (c *Client) PathByID(ctx context.Context, id string) (string, error) {
	var path string
	err := c.request(ctx, epPathByID, idPayload{ID: id}, &path)
	if err != nil {
		var re *syfix.RemoteError
		if errors.As(err, &re) {
			return "", &syfix.LookupError{ID: id, Msg: re.Msg}
		}
		return "", err
	}

	if path == "" {
		return "", &syfix.LookupError{ID: id}
	}

	return path, nil
}

// Blocks ---------------------------------------------------------------------

// Kramdown retrieves the content of a block in kramdown form.
func (c *Client) Kramdown(ctx context.Context, id string) (string, error) {
	var res kramdownResult
	err := c.request(ctx, epKramdown, idPayload{ID: id}, &res)
	if err != nil {
		return "", err
	}

	return res.Kramdown, nil
}

// UpdateBlock replaces the content of a block with the given markdown.
func (c *Client) UpdateBlock(ctx context.Context, markdown, id string) error {
	p := updatePayload{
		Data:     markdown,
		DataType: dataTypeMarkdown,
		ID:       id,
	}
	return c.request(ctx, epUpdate, p, nil)
}

// InsertBlock inserts a new block with the given markdown content.
//
// The position is given by one of nextID, previousID or parentID;
// unused IDs are left empty.
// Returns the ID of the new block.
func (c *Client) InsertBlock(ctx context.Context, markdown, nextID, previousID, parentID string) (string, error) {
	p := insertPayload{
		Data:       markdown,
		DataType:   dataTypeMarkdown,
		NextID:     nextID,
		PreviousID: previousID,
		ParentID:   parentID,
	}

	var raw json.RawMessage
	err := c.request(ctx, epInsert, p, &raw)
	if err != nil {
		return "", err
	}

	id, err := insertedID(raw)
	if err != nil {
		return "", &syfix.TransportError{Endpoint: epInsert, Err: err}
	}

	logging.Debug("Inserted block %q", id)
	return id, nil
}

// DeleteBlock deletes the block with the given ID.
func (c *Client) DeleteBlock(ctx context.Context, id string) error {
	return c.request(ctx, epDelete, idPayload{ID: id}, nil)
}

// ChildBlocks lists the direct children of a block.
func (c *Client) ChildBlocks(ctx context.Context, id string) ([]syfix.ChildBlock, error) {
	children := make([]syfix.ChildBlock, 0)
	err := c.request(ctx, epChildren, idPayload{ID: id}, &children)
	if err != nil {
		return nil, err
	}

	return children, nil
}

// Requests -------------------------------------------------------------------

// request sends payload to the given endpoint and decodes the data field of
// the response envelope into dst.
//
// The request waits for a free slot before it is sent; the slot is released
// when the request is done, whether it failed or not.
func (c *Client) request(ctx context.Context, endpoint string, payload, dst interface{}) error {
	err := c.sem.Acquire(ctx, 1)
	if err != nil {
		return &syfix.TransportError{Endpoint: endpoint, Err: err}
	}
	defer c.sem.Release(1)

	if c.limiter != nil {
		err = c.limiter.Wait(ctx)
		if err != nil {
			return &syfix.TransportError{Endpoint: endpoint, Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := newRequest(ctx, c.cfg.BaseURL, endpoint, c.cfg.Token, payload)
	if err != nil {
		return &syfix.TransportError{Endpoint: endpoint, Err: syfix.Wrap(err, "could not prepare API request")}
	}

	// log the request body
	if logging.DebugEnabled() && req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err == nil {
			logging.Debug("Request body: %v", string(data))
			req.Body = io.NopCloser(bytes.NewBuffer(data))
		}
	}

	res, err := c.client.Do(req)
	if err != nil {
		return &syfix.TransportError{Endpoint: endpoint, Err: err}
	}
	defer res.Body.Close()
	// must read body to end
	// https://golang.org/pkg/net/http/#Client.Do
	resData, err := io.ReadAll(res.Body)
	if err != nil {
		return &syfix.TransportError{Endpoint: endpoint, Err: err}
	}

	logging.Debug("API request %v %v returned status %v", req.Method, req.URL, res.StatusCode)
	logging.Debug("Response body: %v", string(resData))

	err = syfix.ExpectOK(res, "API request failed")
	if err != nil {
		return &syfix.TransportError{Endpoint: endpoint, Err: err}
	}

	var env envelope
	err = json.Unmarshal(resData, &env)
	if err != nil {
		return &syfix.TransportError{Endpoint: endpoint, Err: syfix.Wrap(err, "failed to read API response")}
	}

	if env.Code != 0 {
		return &syfix.RemoteError{Endpoint: endpoint, Code: env.Code, Msg: env.Msg}
	}

	if dst != nil && !env.empty() {
		err = json.Unmarshal(env.Data, dst)
		if err != nil {
			return &syfix.TransportError{Endpoint: endpoint, Err: syfix.Wrap(err, "failed to read API response data")}
		}
	}

	return nil
}
