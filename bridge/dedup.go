package bridge

import (
	"sort"
	"time"

	"nextcloud-ntfy/model"
)

// Epoch is the initial watermark of every run.
var Epoch = time.Unix(0, 0).UTC()

type PollState struct {
	Watermark time.Time
}

func NewPollState() PollState {
	return PollState{Watermark: Epoch}
}

type Classified struct {
	Notification model.Notification
	New          bool
}

// Advance walks batch oldest first and marks a notification new only if it
// is strictly later than the running watermark. The API lists newest first,
// so the batch is reversed and then stably sorted by datetime to cope with
// out-of-order entries. The returned watermark is never before the one
// passed in.
func Advance(watermark time.Time, batch []model.Notification) (time.Time, []Classified) {
	ordered := make([]model.Notification, len(batch))
	for i, n := range batch {
		ordered[len(batch)-1-i] = n
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Datetime.Before(ordered[j].Datetime)
	})

	out := make([]Classified, 0, len(ordered))
	for _, n := range ordered {
		if !n.Datetime.After(watermark) {
			out = append(out, Classified{Notification: n})
			continue
		}
		watermark = n.Datetime
		out = append(out, Classified{Notification: n, New: true})
	}
	return watermark, out
}
