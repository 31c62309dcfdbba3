package utils

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"nextcloud-ntfy/config"
	"nextcloud-ntfy/model"
)

type FetchStatus int

const (
	FetchOK FetchStatus = iota
	FetchEmpty
	FetchTransportError
)

func (s FetchStatus) String() string {
	switch s {
	case FetchOK:
		return "ok"
	case FetchEmpty:
		return "empty"
	case FetchTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// FetchOutcome is the classified result of one poll. Body is only set for
// FetchOK. StatusCode is 0 when no response was received, Err then holds
// the cause.
type FetchOutcome struct {
	Status     FetchStatus
	StatusCode int
	Body       []byte
	Err        error
}

type NextcloudClient struct {
	url        string
	authHeader string
	client     *http.Client
}

func NewNextcloudClient(cfg *config.Config) *NextcloudClient {
	return &NextcloudClient{
		url:        cfg.NotificationsURL(),
		authHeader: BasicAuthHeader(cfg.NextcloudUsername, cfg.NextcloudPassword),
		client:     &http.Client{Timeout: cfg.HTTPTimeout()},
	}
}

func BasicAuthHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// AuthHeader is the Authorization value sent with every OCS request.
func (c *NextcloudClient) AuthHeader() string {
	return c.authHeader
}

func (c *NextcloudClient) NotificationsURL() string {
	return c.url
}

func (c *NextcloudClient) Fetch(ctx context.Context) FetchOutcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return FetchOutcome{Status: FetchTransportError, Err: errors.Wrap(err, "can't create request to Nextcloud")}
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("OCS-APIREQUEST", "true")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return FetchOutcome{Status: FetchTransportError, Err: errors.Wrap(err, "can't send request to Nextcloud")}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return FetchOutcome{Status: FetchTransportError, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode == http.StatusNoContent {
		return FetchOutcome{Status: FetchEmpty, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchOutcome{
			Status:     FetchTransportError,
			StatusCode: resp.StatusCode,
			Err:        errors.Wrap(err, "can't read Nextcloud response"),
		}
	}

	slog.Debug("received data from Nextcloud", slog.Int("status", resp.StatusCode),
		slog.String("body", string(body)))
	return FetchOutcome{Status: FetchOK, StatusCode: resp.StatusCode, Body: body}
}

type ocsEnvelope struct {
	OCS struct {
		Data []model.Notification `json:"data"`
	} `json:"ocs"`
}

// ParseNotifications decodes an OCS notification listing. The returned slice
// keeps the API order, newest first.
func ParseNotifications(body []byte) ([]model.Notification, error) {
	var env ocsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "can't parse Nextcloud response")
	}
	return env.OCS.Data, nil
}
