package modules

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/memohai/wagate/internal/boot"
	"github.com/memohai/wagate/internal/broadcast"
	"github.com/memohai/wagate/internal/config"
	"github.com/memohai/wagate/internal/contacts"
	"github.com/memohai/wagate/internal/handlers"
	"github.com/memohai/wagate/internal/media"
	messagepkg "github.com/memohai/wagate/internal/message"
	"github.com/memohai/wagate/internal/session"
	"github.com/memohai/wagate/internal/session/event"
	"github.com/memohai/wagate/internal/storage"
	"github.com/memohai/wagate/internal/transport"
	"github.com/memohai/wagate/internal/transport/whatsapp"
)

var SessionModule = fx.Module(
	"session",
	fx.Provide(
		event.NewHub,
		func(h *event.Hub) event.Publisher { return h },
		func(h *event.Hub) event.Subscriber { return h },
		session.NewRegistry,
		provideTransportFactory,
		fx.Annotate(session.NewPGStore, fx.As(new(session.Store))),
		provideSessionManager,

		fx.Annotate(contacts.NewService, fx.As(new(handlers.RecipientLister))),
		fx.Annotate(messagepkg.NewService, fx.As(new(messagepkg.Service))),
		provideMediaService,
		provideDispatcher,
	),
	fx.Invoke(startSessions),
)

func provideTransportFactory(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (transport.Factory, error) {
	st, err := whatsapp.OpenStore(context.Background(), log, cfg.WhatsApp, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("open whatsapp store: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return st.Close()
		},
	})
	return st, nil
}

func provideSessionManager(log *slog.Logger, rc *boot.RuntimeConfig, registry *session.Registry, factory transport.Factory, store session.Store, events event.Publisher) *session.Manager {
	return session.NewManager(log, registry, factory, store, events, rc.PairingTimeout)
}

func provideMediaService(log *slog.Logger, cfg config.Config) *media.Service {
	return media.NewService(log, storage.NewLocal(cfg.Media.DataRoot), cfg.Media.MaxBytes)
}

func provideDispatcher(log *slog.Logger, cfg config.Config, rc *boot.RuntimeConfig, messages messagepkg.Service) *broadcast.Dispatcher {
	return broadcast.NewDispatcher(log, messages, broadcast.Options{
		MaxConcurrency: cfg.Broadcast.MaxConcurrency,
		RatePerSec:     cfg.Broadcast.RatePerSec,
		LogFailures:    cfg.Broadcast.LogFailures,
		DefaultRegion:  rc.DefaultRegion,
	})
}

// startSessions resumes stored sessions once the server is up and tears
// every transport down on stop.
func startSessions(lc fx.Lifecycle, log *slog.Logger, manager *session.Manager) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := manager.Bootstrap(ctx); err != nil {
				log.Error("resume sessions failed", slog.Any("error", err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return manager.Shutdown(ctx)
		},
	})
}
