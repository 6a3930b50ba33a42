package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zen-systems/proofgate/pkg/ledger"
	"github.com/zen-systems/proofgate/pkg/pipeline"
)

// Client calls a running server's review endpoints. Review state lives in
// the serving process; the CLI's pending and resume commands are thin
// clients of it.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Pending lists the runs suspended for review on the server.
func (c *Client) Pending(ctx context.Context) ([]*ledger.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/review", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list reviews: server returned %d", resp.StatusCode)
	}

	var body struct {
		Pending []*ledger.Record `json:"pending"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode review list: %w", err)
	}
	return body.Pending, nil
}

// Resume applies a review decision on the server and returns its outcome.
// Conflict responses still carry an outcome; only transport and request
// errors return a non-nil error.
func (c *Client) Resume(ctx context.Context, recordID string, action pipeline.Action, payload *pipeline.ResumePayload) (*pipeline.ResumeOutcome, error) {
	request := resumeRequest{Action: string(action)}
	if payload != nil {
		request.EditedText = payload.EditedText
		request.Corrected = payload.Corrected
	}
	data, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/review/"+recordID, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resume review: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusConflict:
		var outcome pipeline.ResumeOutcome
		if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
			return nil, fmt.Errorf("decode resume outcome: %w", err)
		}
		return &outcome, nil
	default:
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = fmt.Sprintf("server returned %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("resume review: %s", body.Error)
	}
}
