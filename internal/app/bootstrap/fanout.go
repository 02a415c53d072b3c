package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/salonbooker/salonbooker/internal/calendar"
	appconfig "github.com/salonbooker/salonbooker/internal/config"
	"github.com/salonbooker/salonbooker/internal/events"
	"github.com/salonbooker/salonbooker/internal/notify"
	"github.com/salonbooker/salonbooker/internal/reminders"
	"github.com/salonbooker/salonbooker/internal/salon"
	"github.com/salonbooker/salonbooker/internal/webhooks"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

// FanoutDeps are the collaborators of the outbox fan-out.
type FanoutDeps struct {
	Config  *appconfig.Config
	Salons  *salon.Store
	Tracker events.ProcessedTracker
	Email   notify.EmailSender
	SMS     notify.SMSSender
	// Asynq is optional; without it no reminders are scheduled.
	Asynq     *asynq.Client
	Inspector *asynq.Inspector
	Logger    *logging.Logger
}

// BuildFanout registers every booking side effect on one fan-out handler.
func BuildFanout(ctx context.Context, deps FanoutDeps) (*events.Fanout, error) {
	if deps.Config == nil || deps.Salons == nil {
		return nil, fmt.Errorf("bootstrap: fanout requires config and salon store")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	cfg := deps.Config

	fanout := events.NewFanout(deps.Tracker, logger)

	notify.NewService(deps.Email, deps.SMS, deps.Salons, logger).Register(fanout)

	webhooks.NewDispatcher(deps.Salons, cfg.WebhookSigningKey, logger).
		WithMaxAttempts(cfg.WebhookMaxAttempts).
		WithBaseDelay(cfg.WebhookBaseDelay).
		Register(fanout)

	if strings.TrimSpace(cfg.GoogleCalendarCredentialsFile) != "" {
		syncer, err := calendar.NewSyncer(ctx, cfg.GoogleCalendarCredentialsFile, cfg.GoogleCalendarID, deps.Salons, logger)
		if err != nil {
			return nil, err
		}
		syncer.Register(fanout)
	} else {
		logger.Info("google calendar sync disabled")
	}

	if deps.Asynq != nil {
		reminders.NewScheduler(deps.Asynq, deps.Inspector, cfg.ReminderLeadTime, logger).Register(fanout)
	} else {
		logger.Info("reminder scheduling disabled")
	}

	logger.Info("outbox fanout ready", "handlers", fanout.Names())
	return fanout, nil
}

// AsynqRedisOpt converts the Redis settings for asynq clients and servers.
func AsynqRedisOpt(cfg *appconfig.Config) asynq.RedisClientOpt {
	opts := RedisOptions(cfg)
	return asynq.RedisClientOpt{
		Addr:      opts.Addr,
		Password:  opts.Password,
		TLSConfig: opts.TLSConfig,
	}
}
