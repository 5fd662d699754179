package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arkade-os/marketd/internal/config"
	"github.com/arkade-os/marketd/internal/core/application"
	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/telemetry"
	"github.com/arkade-os/marketd/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// Version will be set during build time
var Version string

const statsInterval = time.Minute

func main() {
	app := cli.NewApp()
	app.Version = Version
	app.Name = "marketd"
	app.Usage = "settlement daemon of the asset marketplace"
	app.UsageText = "Runs the auction sweeper and exposes the marketplace records"
	app.Flags = config.Flags
	app.Before = loadConfigFile
	app.Action = mainAction
	app.Commands = append(
		app.Commands,
		assetsCmd, auctionsCmd, attestationsCmd, attestCmd, openAccountCmd, creditCmd,
	)

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func mainAction(c *cli.Context) error {
	cfg, svc, err := initService(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var otelShutdown func(context.Context) error
	if cfg.OtelCollectorEndpoint != "" {
		pushInterval := time.Duration(cfg.OtelPushInterval) * time.Second
		otelShutdown, err = telemetry.InitOtelSDK(ctx, cfg.OtelCollectorEndpoint, pushInterval)
		if err != nil {
			return err
		}
	}

	if err := svc.Start(); err != nil {
		return fmt.Errorf("failed to start marketplace service: %s", err)
	}
	log.Info("marketplace service started")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return logStats(ctx, svc)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down marketplace service...")
		svc.Stop()

		if otelShutdown != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("failed to shutdown otel sdk")
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("marketplace service stopped")
	return nil
}

// initService loads and validates the config, builds the marketplace service
// and configures the attestation channel if a relayer is given.
func initService(c *cli.Context) (*config.Config, application.Service, error) {
	cfg, err := config.LoadConfig(c)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid config: %s", err)
	}

	log.SetLevel(log.Level(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %s", err)
	}
	log.Debugf("loaded config: %s", cfg)

	svc, err := cfg.AppService()
	if err != nil {
		return nil, nil, err
	}

	if cfg.AuthorizedRelayer != nil {
		_, err := svc.Attestations().ConfigureChannel(
			c.Context, cfg.Admin, *cfg.AuthorizedRelayer,
		)
		if err != nil && !errors.Is(err, errors.CHANNEL_ALREADY_CONFIGURED) {
			return nil, nil, fmt.Errorf("failed to configure attestation channel: %s", err)
		}
	}
	return cfg, svc, nil
}

func logStats(ctx context.Context, svc application.Service) error {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			active, err := svc.Auctions().ListAuctions(ctx, domain.AuctionActive)
			if err != nil {
				log.WithError(err).Warn("failed to list active auctions")
				continue
			}
			pending, err := svc.Auctions().ListAuctions(ctx, domain.AuctionEndedSoldPayPending)
			if err != nil {
				log.WithError(err).Warn("failed to list auctions pending settlement")
				continue
			}
			log.WithFields(log.Fields{
				"active":             len(active),
				"pending_settlement": len(pending),
			}).Info("auction stats")
		}
	}
}
