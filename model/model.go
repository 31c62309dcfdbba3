package model

import (
	"bytes"
	"encoding/json"
	"time"
)

type ActionKind int

const (
	ActionHTTP ActionKind = iota
	ActionView
)

// webActionType is the non-HTTP action type Nextcloud uses for links that
// should open in a browser.
const webActionType = "WEB"

// Action is a notification button as delivered by Nextcloud. Kind and Method
// are decided once while decoding.
type Action struct {
	Label  string
	Link   string
	Kind   ActionKind
	Method string
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var raw struct {
		Label string `json:"label"`
		Link  string `json:"link"`
		Type  string `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.Label = raw.Label
	a.Link = raw.Link
	if raw.Type == webActionType {
		a.Kind = ActionView
		a.Method = ""
	} else {
		a.Kind = ActionHTTP
		a.Method = raw.Type
	}
	return nil
}

// NotificationID is kept as an opaque string even though the OCS API
// sends a number.
type NotificationID string

func (id *NotificationID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NotificationID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = NotificationID(n.String())
	return nil
}

type Notification struct {
	ID       NotificationID `json:"notification_id"`
	App      string         `json:"app"`
	Subject  string         `json:"subject"`
	Message  string         `json:"message"`
	Link     string         `json:"link"`
	Datetime time.Time      `json:"datetime"`
	Actions  []Action       `json:"actions"`
}

// PushAction is an ntfy action button.
type PushAction struct {
	Action  string            `json:"action"`
	Label   string            `json:"label"`
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Clear   bool              `json:"clear"`
}

// PushMessage is the body of an ntfy JSON publish request.
type PushMessage struct {
	Topic    string       `json:"topic"`
	Title    string       `json:"title"`
	Message  string       `json:"message"`
	Click    string       `json:"click"`
	Actions  []PushAction `json:"actions"`
	Tags     []string     `json:"tags,omitempty"`
	Priority int          `json:"priority,omitempty"`
}
