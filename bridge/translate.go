package bridge

import (
	"fmt"
	"net/http"

	"nextcloud-ntfy/model"
)

const adminNotificationsApp = "admin_notifications"

// Nextcloud apps often have internal names that differ from what the UI
// shows, e.g. `spreed` is `Talk`.
var appDisplayNames = map[string]string{
	"spreed":                    "Talk",
	"event_update_notification": "Calendar",
}

func DisplayName(app string) string {
	if name, ok := appDisplayNames[app]; ok {
		return name
	}
	return app
}

// Title builds the ntfy title. Admin notifications carry no app name.
func Title(source, app, subject string) string {
	if app == adminNotificationsApp {
		return fmt.Sprintf("%s: %s", source, subject)
	}
	return fmt.Sprintf("%s - %s: %s", source, DisplayName(app), subject)
}

func TranslateAction(a model.Action) model.PushAction {
	if a.Kind == model.ActionView {
		return model.PushAction{
			Action: "view",
			Label:  a.Label,
			URL:    a.Link,
			Clear:  true,
		}
	}
	return model.PushAction{
		Action: "http",
		Label:  a.Label,
		URL:    a.Link,
		Method: a.Method,
		Clear:  true,
	}
}

// DismissAction deletes the notification on the Nextcloud side when tapped.
func DismissAction(notificationsURL string, id model.NotificationID, authHeader string) model.PushAction {
	return model.PushAction{
		Action: "http",
		Label:  "Dismiss",
		URL:    notificationsURL + "/" + string(id),
		Method: http.MethodDelete,
		Headers: map[string]string{
			"Authorization":  authHeader,
			"OCS-APIREQUEST": "true",
		},
		Clear: true,
	}
}

// BuildActions translates the notification buttons and appends Dismiss.
func BuildActions(n *model.Notification, notificationsURL, authHeader string) []model.PushAction {
	actions := make([]model.PushAction, 0, len(n.Actions)+1)
	for _, a := range n.Actions {
		actions = append(actions, TranslateAction(a))
	}
	return append(actions, DismissAction(notificationsURL, n.ID, authHeader))
}
