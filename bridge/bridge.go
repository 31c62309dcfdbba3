package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"nextcloud-ntfy/config"
	"nextcloud-ntfy/model"
	"nextcloud-ntfy/utils"
)

// ErrPushRejected stops the bridge: ntfy refused a message with something
// other than 429, which needs an operator to look at the configuration.
var ErrPushRejected = errors.New("ntfy rejected notification")

type Fetcher interface {
	Fetch(ctx context.Context) utils.FetchOutcome
	NotificationsURL() string
	AuthHeader() string
}

type Pusher interface {
	Push(ctx context.Context, msg *model.PushMessage) utils.DispatchOutcome
	URL() string
}

type SleepFunc func(ctx context.Context, d time.Duration) error

type Options struct {
	Topic          string
	Source         string
	Tags           []string
	Priority       int
	PollInterval   time.Duration
	ErrorSleep     time.Duration
	EmptySleep     time.Duration
	RateLimitSleep time.Duration
	Sleep          SleepFunc
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Topic:          cfg.NtfyTopic,
		Source:         cfg.NextcloudDisplayName,
		Tags:           cfg.NtfyTags,
		Priority:       cfg.NtfyPriority,
		PollInterval:   cfg.PollInterval(),
		ErrorSleep:     cfg.ErrorSleep(),
		EmptySleep:     cfg.EmptySleep(),
		RateLimitSleep: cfg.RateLimitSleep(),
	}
}

// Bridge polls Nextcloud and forwards unseen notifications to ntfy, one
// request at a time.
type Bridge struct {
	fetcher Fetcher
	pusher  Pusher
	opts    Options
	state   PollState
}

func New(fetcher Fetcher, pusher Pusher, opts Options) *Bridge {
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	return &Bridge{
		fetcher: fetcher,
		pusher:  pusher,
		opts:    opts,
		state:   NewPollState(),
	}
}

func (b *Bridge) State() PollState {
	return b.state
}

// Run loops until ctx is cancelled, which returns nil, or until a push is
// rejected, which returns an error wrapping ErrPushRejected.
func (b *Bridge) Run(ctx context.Context) error {
	slog.Info("started Nextcloud to ntfy notification bridge",
		slog.String("nextcloud", b.fetcher.NotificationsURL()), slog.String("ntfy", b.pusher.URL()),
		slog.String("topic", b.opts.Topic))

	for {
		next, err := b.RunCycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := b.opts.Sleep(ctx, next); err != nil {
			return nil
		}
	}
}

// RunCycle performs one fetch and dispatches whatever is new. It returns how
// long to sleep before the next cycle.
func (b *Bridge) RunCycle(ctx context.Context) (time.Duration, error) {
	log := slog.With(slog.String("cycle", uuid.NewString()))
	log.Debug("fetching notifications")

	outcome := b.fetcher.Fetch(ctx)
	switch outcome.Status {
	case utils.FetchTransportError:
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		attrs := []any{slog.Int("status", outcome.StatusCode)}
		if outcome.Err != nil {
			attrs = append(attrs, slog.String("error", outcome.Err.Error()))
		}
		log.Error("error while fetching notifications", attrs...)
		log.Warn("sleeping after fetch error", slog.Duration("sleep", b.opts.ErrorSleep))
		return b.opts.ErrorSleep, nil
	case utils.FetchEmpty:
		// nextcloud_204_sleep_seconds is reported but the regular poll interval applies.
		log.Debug("got code 204 while fetching notifications",
			slog.Duration("configured_sleep", b.opts.EmptySleep), slog.Duration("sleep", b.opts.PollInterval))
		return b.opts.PollInterval, nil
	}

	log.Debug("got response", slog.Int("status", outcome.StatusCode))
	batch, err := utils.ParseNotifications(outcome.Body)
	if err != nil {
		log.Error("error parsing response from Nextcloud",
			slog.Int("status", outcome.StatusCode),
			slog.String("body", string(outcome.Body)),
			slog.String("error", err.Error()))
		return b.opts.PollInterval, nil
	}

	if err := b.emit(ctx, log, batch); err != nil {
		return 0, err
	}
	return b.opts.PollInterval, nil
}

func (b *Bridge) emit(ctx context.Context, log *slog.Logger, batch []model.Notification) error {
	watermark, classified := Advance(b.state.Watermark, batch)
	b.state.Watermark = watermark

	for _, c := range classified {
		if !c.New {
			log.Debug("no new notifications", slog.String("id", string(c.Notification.ID)))
			continue
		}
		n := c.Notification
		log.Info("new notification received", slog.String("id", string(n.ID)), slog.String("app", n.App))

		msg := b.buildMessage(&n)
		log.Debug("notification built", slog.String("title", msg.Title),
			slog.String("message", msg.Message), slog.Any("actions", msg.Actions))

		log.Info("pushing notification to ntfy")
		result := b.pusher.Push(ctx, msg)
		switch result.Status {
		case utils.PushAccepted:
		case utils.PushRateLimited:
			log.Error("error pushing notification: too many requests", slog.String("ntfy", b.pusher.URL()))
			log.Warn("sleeping after rate limit", slog.Duration("sleep", b.opts.RateLimitSleep))
			if err := b.opts.Sleep(ctx, b.opts.RateLimitSleep); err != nil {
				return err
			}
		default:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			attrs := []any{
				slog.String("ntfy", b.pusher.URL()),
				slog.Int("status", result.StatusCode),
				slog.String("response", result.Body),
			}
			if result.Err != nil {
				attrs = append(attrs, slog.String("error", result.Err.Error()))
			}
			log.Log(ctx, utils.LevelCritical, "unknown error while pushing notification", attrs...)
			return errors.Wrapf(ErrPushRejected, "notification %s, status %d", n.ID, result.StatusCode)
		}
	}
	return nil
}

func (b *Bridge) buildMessage(n *model.Notification) *model.PushMessage {
	return &model.PushMessage{
		Topic:    b.opts.Topic,
		Title:    Title(b.opts.Source, n.App, n.Subject),
		Message:  n.Message,
		Click:    n.Link,
		Actions:  BuildActions(n, b.fetcher.NotificationsURL(), b.fetcher.AuthHeader()),
		Tags:     b.opts.Tags,
		Priority: b.opts.Priority,
	}
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
