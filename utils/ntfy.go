package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"nextcloud-ntfy/config"
	"nextcloud-ntfy/model"
)

type PushStatus int

const (
	PushAccepted PushStatus = iota
	PushRateLimited
	PushRejected
)

func (s PushStatus) String() string {
	switch s {
	case PushAccepted:
		return "accepted"
	case PushRateLimited:
		return "rate_limited"
	case PushRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// DispatchOutcome is the classified ntfy response. StatusCode is 0 when the
// request never got a response.
type DispatchOutcome struct {
	Status     PushStatus
	StatusCode int
	Body       string
	Err        error
}

type NtfyClient struct {
	url     string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewNtfyClient builds a publisher for cfg.NtfyBaseURL. The bearer token is
// only attached when ntfy auth is enabled.
func NewNtfyClient(cfg *config.Config) *NtfyClient {
	c := &NtfyClient{
		url:    cfg.NtfyBaseURL,
		client: &http.Client{Timeout: cfg.HTTPTimeout()},
	}
	if cfg.NtfyAuth {
		c.token = cfg.NtfyToken
	}
	if cfg.NtfyMaxPublishPerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.NtfyMaxPublishPerSec), 1)
	}
	return c
}

func (c *NtfyClient) URL() string {
	return c.url
}

func (c *NtfyClient) Push(ctx context.Context, msg *model.PushMessage) DispatchOutcome {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return DispatchOutcome{Status: PushRejected, Err: errors.Wrap(err, "waiting for publish slot")}
		}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return DispatchOutcome{Status: PushRejected, Err: errors.Wrap(err, "can't encode ntfy message")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return DispatchOutcome{Status: PushRejected, Err: errors.Wrap(err, "can't create request to NTFY")}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return DispatchOutcome{Status: PushRejected, Err: errors.Wrap(err, "can't send request to NTFY")}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		slog.Debug("notification sent to NTFY")
		return DispatchOutcome{Status: PushAccepted, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return DispatchOutcome{Status: PushRateLimited, StatusCode: resp.StatusCode}
	default:
		bodyBytes, _ := io.ReadAll(resp.Body)
		return DispatchOutcome{Status: PushRejected, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}
}
