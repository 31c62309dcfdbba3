package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionDecodeKind(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		kind   ActionKind
		method string
	}{
		{name: "web", raw: `{"label":"Open","link":"https://x","type":"WEB"}`, kind: ActionView},
		{name: "post", raw: `{"label":"Accept","link":"https://x/accept","type":"POST"}`, kind: ActionHTTP, method: "POST"},
		{name: "delete", raw: `{"label":"Reject","link":"https://x/reject","type":"DELETE"}`, kind: ActionHTTP, method: "DELETE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Action
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &a))
			assert.Equal(t, tt.kind, a.Kind)
			assert.Equal(t, tt.method, a.Method)
			assert.NotEmpty(t, a.Label)
			assert.NotEmpty(t, a.Link)
		})
	}
}

func TestNotificationDecode(t *testing.T) {
	raw := `{
		"notification_id": 42,
		"app": "spreed",
		"subject": "New message",
		"message": "hi",
		"link": "https://nc/call/abc",
		"datetime": "2024-05-01T10:00:00+02:00",
		"actions": [{"label":"View","link":"https://nc/call/abc","type":"WEB"}]
	}`

	var n Notification
	require.NoError(t, json.Unmarshal([]byte(raw), &n))

	assert.Equal(t, NotificationID("42"), n.ID)
	assert.Equal(t, "spreed", n.App)
	assert.True(t, n.Datetime.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)))
	require.Len(t, n.Actions, 1)
	assert.Equal(t, ActionView, n.Actions[0].Kind)
}

func TestNotificationIDAcceptsString(t *testing.T) {
	var id NotificationID
	require.NoError(t, json.Unmarshal([]byte(`"abc-1"`), &id))
	assert.Equal(t, NotificationID("abc-1"), id)

	require.Error(t, json.Unmarshal([]byte(`{}`), &id))
}

func TestPushMessageOmitsUnsetExtensions(t *testing.T) {
	data, err := json.Marshal(PushMessage{Topic: "nextcloud", Title: "t", Actions: []PushAction{}})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "topic")
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "message")
	assert.Contains(t, fields, "click")
	assert.Contains(t, fields, "actions")
	assert.NotContains(t, fields, "tags")
	assert.NotContains(t, fields, "priority")
}
