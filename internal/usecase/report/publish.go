package report

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/infra/notifier"
)

// Sentinel errors for the publish step.
var (
	ErrChannelDisabled = errors.New("channel is disabled")
	ErrInvalidReport   = errors.New("invalid report data")
)

// PublishChannel represents a downstream delivery channel for a finished
// report (Discord, Slack, a future email digest). Each implementation
// handles its own rate limiting and retries internally; PublishAll treats
// every call as best-effort.
type PublishChannel interface {
	// Name returns the channel identifier (e.g. "discord", "slack"), used
	// for logging.
	Name() string

	// IsEnabled returns true if this channel is enabled via configuration.
	// Disabled channels are skipped during dispatch.
	IsEnabled() bool

	// Publish sends a finished report to this channel.
	Publish(ctx context.Context, report *entity.Report) error
}

// DiscordChannel adapts notifier.Notifier to PublishChannel for Discord.
type DiscordChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

func NewDiscordChannel(config notifier.DiscordConfig) *DiscordChannel {
	var n notifier.Notifier
	if config.Enabled {
		n = notifier.NewDiscordNotifier(config)
	} else {
		n = notifier.NewNoOpNotifier()
	}
	return &DiscordChannel{notifier: n, enabled: config.Enabled}
}

func (c *DiscordChannel) Name() string     { return "discord" }
func (c *DiscordChannel) IsEnabled() bool  { return c.enabled }
func (c *DiscordChannel) Publish(ctx context.Context, report *entity.Report) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if report == nil {
		return ErrInvalidReport
	}
	return c.notifier.PublishReport(ctx, report)
}

// SlackChannel adapts notifier.Notifier to PublishChannel for Slack.
type SlackChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

func NewSlackChannel(config notifier.SlackConfig) *SlackChannel {
	var n notifier.Notifier
	if config.Enabled {
		n = notifier.NewSlackNotifier(config)
	} else {
		n = notifier.NewNoOpNotifier()
	}
	return &SlackChannel{notifier: n, enabled: config.Enabled}
}

func (c *SlackChannel) Name() string    { return "slack" }
func (c *SlackChannel) IsEnabled() bool { return c.enabled }
func (c *SlackChannel) Publish(ctx context.Context, report *entity.Report) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if report == nil {
		return ErrInvalidReport
	}
	return c.notifier.PublishReport(ctx, report)
}

// PublishAll attempts to publish report to every enabled channel. A
// channel failure is logged and otherwise ignored: downstream publishing
// is best-effort and must never fail the report run that produced it.
func PublishAll(ctx context.Context, report *entity.Report, channels []PublishChannel) {
	for _, ch := range channels {
		if !ch.IsEnabled() {
			continue
		}
		if err := ch.Publish(ctx, report); err != nil {
			slog.Warn("report publish failed",
				"channel", ch.Name(),
				"report_kind", report.Kind,
				"error", err)
		}
	}
}
