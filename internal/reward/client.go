package reward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CompletionRequest is the body sent to the reward service when an exercise is completed
type CompletionRequest struct {
	UserID           string `json:"userId"`
	Score            int    `json:"score"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
	Success          bool   `json:"success"`
	DiamondReward    int    `json:"diamondReward"`
	ExperienceReward int    `json:"experienceReward"`
}

// Receipt is the reward service's confirmation of a grant
type Receipt struct {
	Granted    bool `json:"granted"`
	Diamonds   int  `json:"diamonds"`
	Experience int  `json:"experience"`
}

// Completer reports a completed exercise to whoever grants rewards
type Completer interface {
	Complete(ctx context.Context, exerciseID string, req CompletionRequest) (*Receipt, error)
}

// StatusError is returned when the reward service answers with a non-2xx status
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reward service returned status %d: %s", e.Code, e.Body)
}

// Client talks to the reward service over HTTP
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a reward service client
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Complete posts a completion to {base}/exercises/{id}/complete
func (c *Client) Complete(ctx context.Context, exerciseID string, req CompletionRequest) (*Receipt, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion: %w", err)
	}

	endpoint := c.baseURL + "/exercises/" + url.PathEscape(exerciseID) + "/complete"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("reward request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read reward response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	receipt := &Receipt{Granted: true}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, receipt); err != nil {
			return nil, fmt.Errorf("invalid reward response: %w", err)
		}
	}
	return receipt, nil
}

// LogCompleter grants every completion locally and only logs it.
// Used when no reward service is configured.
type LogCompleter struct{}

func (LogCompleter) Complete(_ context.Context, exerciseID string, req CompletionRequest) (*Receipt, error) {
	log.Printf("Reward granted locally: user=%s exercise=%s score=%d diamonds=%d xp=%d",
		req.UserID, exerciseID, req.Score, req.DiamondReward, req.ExperienceReward)
	return &Receipt{Granted: true, Diamonds: req.DiamondReward, Experience: req.ExperienceReward}, nil
}
