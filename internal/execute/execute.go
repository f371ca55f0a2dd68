// Package execute proxies code execution requests to the Piston API.
package execute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sshadulla22/SyntaxVerse-Backend/internal/errs"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/obs"
)

// DefaultTimeout bounds the whole round trip to the execution backend.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of an upstream response is read.
const maxResponseBytes = 1 << 20

// File is one source file in an execution request.
type File struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// Request is the payload forwarded to the execution backend. Defaults match
// what the backend expects for interactive snippets.
type Request struct {
	Language           string   `json:"language"`
	Version            string   `json:"version"`
	Files              []File   `json:"files"`
	Stdin              string   `json:"stdin"`
	Args               []string `json:"args"`
	CompileTimeout     int      `json:"compile_timeout"`
	RunTimeout         int      `json:"run_timeout"`
	CompileMemoryLimit int      `json:"compile_memory_limit"`
	RunMemoryLimit     int      `json:"run_memory_limit"`
}

// ApplyDefaults fills unset fields the way the public API documents them.
func (r *Request) ApplyDefaults() {
	if r.Version == "" {
		r.Version = "*"
	}
	if r.Args == nil {
		r.Args = []string{}
	}
	if r.CompileTimeout == 0 {
		r.CompileTimeout = 10000
	}
	if r.RunTimeout == 0 {
		r.RunTimeout = 3000
	}
	if r.CompileMemoryLimit == 0 {
		r.CompileMemoryLimit = -1
	}
	if r.RunMemoryLimit == 0 {
		r.RunMemoryLimit = -1
	}
}

// Client forwards execution requests to a Piston-compatible endpoint.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates an execution client for the given endpoint URL.
func NewClient(url string) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: DefaultTimeout},
	}
}

// Execute validates the request minimally and forwards it. The backend's
// JSON response is passed through untouched so clients see exactly what the
// engine reported.
func (c *Client) Execute(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Language == "" {
		return nil, errs.New(errs.InvalidArgument, "language is required")
	}
	if len(req.Files) == 0 {
		return nil, errs.New(errs.InvalidArgument, "at least one file is required")
	}
	req.ApplyDefaults()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to encode execution request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to build execution request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		obs.From(ctx).Warn("piston_request_failed", "err", err.Error())
		return nil, errs.Wrap(errs.Upstream, "Execution Failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errs.Wrap(errs.Upstream, "Execution Failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		obs.From(ctx).Warn("piston_error_status", "status", resp.StatusCode)
		return nil, errs.New(errs.Upstream, fmt.Sprintf("Piston Error: %s", string(body)))
	}

	if !json.Valid(body) {
		return nil, errs.New(errs.Upstream, "Execution Failed")
	}
	return json.RawMessage(body), nil
}
