package claim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/radixpos/controlplane/internal/apperr"
)

// consumeTimeout is the hard deadline on claim/consume: a timeout here must
// surface as "Onsite server did not respond in time", never hang the
// operator's request waiting on an unreachable edge.
const consumeTimeout = 10 * time.Second

// Client calls the two public endpoints an onsite edge server exposes for
// the claim handshake: a single http.Client with a fixed timeout,
// context-propagated requests, no retries — outbound calls like this run
// outside any database transaction.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a claim Client with a fixed 10s timeout.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{Timeout: consumeTimeout}}
}

// Consume calls POST <edgeBaseUrl>/onsite/public/claim/consume. A timeout
// or non-2xx response maps to Upstream (502).
func (c *Client) Consume(ctx context.Context, edgeBaseURL string, req ConsumeRequest) (ConsumeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, consumeTimeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return ConsumeResponse{}, fmt.Errorf("marshalling claim/consume request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, edgeBaseURL+"/onsite/public/claim/consume", bytes.NewReader(body))
	if err != nil {
		return ConsumeResponse{}, fmt.Errorf("building claim/consume request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ConsumeResponse{}, apperr.Upstreamf("onsite server did not respond in time")
		}
		return ConsumeResponse{}, apperr.Upstreamf("calling onsite server: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ConsumeResponse{}, apperr.Upstreamf("onsite server returned HTTP %d", resp.StatusCode)
	}

	var out ConsumeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ConsumeResponse{}, apperr.Upstreamf("decoding onsite server response: %v", err)
	}
	return out, nil
}

// Finalize calls POST <edgeBaseUrl>/onsite/public/claim/finalize. Its
// response is ignored on success; the caller treats any error here as
// non-fatal since the cloud-side link is already committed by the time
// Finalize runs.
func (c *Client) Finalize(ctx context.Context, edgeBaseURL string, req FinalizeRequest) error {
	ctx, cancel := context.WithTimeout(ctx, consumeTimeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshalling claim/finalize request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, edgeBaseURL+"/onsite/public/claim/finalize", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building claim/finalize request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("calling onsite server finalize: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("onsite server finalize returned HTTP %d", resp.StatusCode)
	}
	return nil
}
