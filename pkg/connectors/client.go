// Package connectors holds the thin typed clients for each vendor API.
// Every connector is read-only, speaks the vendor's REST/JSON dialect,
// and converts minor-unit (cents) amounts to decimal dollars at this
// boundary so canonical statements only ever see dollar amounts.
package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// Timeouts per call class. Point reads (a single balance) are short;
// report and transaction-range reads get longer budgets.
const (
	pointReadTimeout = 15 * time.Second
	rangeReadTimeout = 20 * time.Second
	reportTimeout    = 30 * time.Second
)

// TransportError is a failed vendor call: network error, timeout,
// non-2xx status, or a body that could not be decoded even after repair.
// Enrichment recovers from these by skipping the source; a transport
// failure on the primary report source aborts the whole build.
type TransportError struct {
	Source string
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s returned status %d", e.Source, e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Source, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// restClient is the shared HTTP plumbing: bearer auth, per-call timeout,
// JSON decoding with repair fallback.
type restClient struct {
	source  string
	baseURL string
	token   string
	headers map[string]string
	client  *http.Client
}

func newRESTClient(source, baseURL, token string) *restClient {
	return &restClient{
		source:  source,
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{},
	}
}

func (c *restClient) getJSON(ctx context.Context, path string, query url.Values, timeout time.Duration, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &TransportError{Source: c.source, Op: path, Err: err}
	}
	return c.do(req, path, out)
}

func (c *restClient) postJSON(ctx context.Context, path string, body interface{}, timeout time.Duration, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return &TransportError{Source: c.source, Op: path, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Source: c.source, Op: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *restClient) do(req *http.Request, op string, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Source: c.source, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &TransportError{Source: c.source, Op: op, Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Source: c.source, Op: op, Err: err}
	}
	if out == nil {
		return nil
	}
	return decodeJSON(c.source, op, raw, out)
}

// decodeJSON unmarshals a vendor body, running it through json-repair
// first when a strict parse fails. Vendors occasionally ship bodies with
// trailing commas or BOM junk; repair recovers those, anything worse is
// a transport failure.
func decodeJSON(source, op string, raw []byte, out interface{}) error {
	if err := json.Unmarshal(raw, out); err == nil {
		return nil
	}
	repaired, repairErr := jsonrepair.RepairJSON(string(raw))
	if repairErr != nil {
		return &TransportError{Source: source, Op: op, Err: fmt.Errorf("malformed body: %w", repairErr)}
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return &TransportError{Source: source, Op: op, Err: fmt.Errorf("malformed body: %w", err)}
	}
	return nil
}
