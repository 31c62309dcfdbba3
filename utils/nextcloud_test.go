package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextcloud-ntfy/config"
	"nextcloud-ntfy/model"
)

const notificationPath = "/ocs/v2.php/apps/notifications/api/v2/notifications"

func nextcloudConfig(baseURL string) *config.Config {
	return &config.Config{
		NextcloudBaseURL:   baseURL,
		NextcloudPath:      notificationPath,
		NextcloudUsername:  "user",
		NextcloudPassword:  "pass",
		HTTPTimeoutSeconds: 5,
	}
}

func TestFetchSendsOCSHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, notificationPath, r.URL.Path)
		assert.Equal(t, "Basic dXNlcjpwYXNz", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.Header.Get("OCS-APIREQUEST"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"ocs":{"data":[]}}`))
	}))
	defer srv.Close()

	out := NewNextcloudClient(nextcloudConfig(srv.URL)).Fetch(context.Background())

	assert.Equal(t, FetchOK, out.Status)
	assert.Equal(t, http.StatusOK, out.StatusCode)
	assert.JSONEq(t, `{"ocs":{"data":[]}}`, string(out.Body))
}

func TestFetchClassifiesStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   FetchStatus
	}{
		{name: "no content", status: http.StatusNoContent, want: FetchEmpty},
		{name: "unauthorized", status: http.StatusUnauthorized, want: FetchTransportError},
		{name: "server error", status: http.StatusInternalServerError, want: FetchTransportError},
		{name: "unavailable", status: http.StatusServiceUnavailable, want: FetchTransportError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			out := NewNextcloudClient(nextcloudConfig(srv.URL)).Fetch(context.Background())

			assert.Equal(t, tt.want, out.Status)
			assert.Equal(t, tt.status, out.StatusCode)
			assert.Empty(t, out.Body)
		})
	}
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	out := NewNextcloudClient(nextcloudConfig(url)).Fetch(context.Background())

	assert.Equal(t, FetchTransportError, out.Status)
	assert.Zero(t, out.StatusCode)
	assert.Error(t, out.Err)
}

func TestNotificationsURLAndAuth(t *testing.T) {
	c := NewNextcloudClient(nextcloudConfig("https://nc/"))

	assert.Equal(t, "https://nc"+notificationPath, c.NotificationsURL())
	assert.Equal(t, "Basic dXNlcjpwYXNz", c.AuthHeader())
}

func TestParseNotifications(t *testing.T) {
	body := []byte(`{"ocs":{"meta":{"status":"ok","statuscode":200},"data":[
		{"notification_id":12,"app":"spreed","user":"u","datetime":"2024-05-01T10:02:00+00:00","subject":"s2","message":"","link":"https://nc/2","actions":[]},
		{"notification_id":11,"app":"files","user":"u","datetime":"2024-05-01T10:01:00+00:00","subject":"s1","message":"m","link":"https://nc/1",
		 "actions":[{"label":"Open","link":"https://nc/1","type":"WEB","primary":true}]}
	]}}`)

	got, err := ParseNotifications(body)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, model.NotificationID("12"), got[0].ID)
	assert.True(t, got[0].Datetime.Equal(time.Date(2024, 5, 1, 10, 2, 0, 0, time.UTC)))
	require.Len(t, got[1].Actions, 1)
	assert.Equal(t, model.ActionView, got[1].Actions[0].Kind)
}

func TestParseNotificationsRejectsGarbage(t *testing.T) {
	_, err := ParseNotifications([]byte("<html>maintenance</html>"))
	assert.Error(t, err)
}
