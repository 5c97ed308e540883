package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/datastore"
	"github.com/courtside/wintracker/internal/httpcontroller"
	"github.com/courtside/wintracker/internal/logger"
	"github.com/courtside/wintracker/internal/mqtt"
	"github.com/courtside/wintracker/internal/observability"
	"github.com/courtside/wintracker/internal/telemetry"
	"github.com/courtside/wintracker/internal/tracker"
)

// Command creates the command that runs the web interface.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		Long:  "Serve the tracker page and JSON API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Run(ctx, settings)
		},
	}

	cmd.Flags().StringVar(&settings.WebServer.Port, "port", settings.WebServer.Port, "Web server port")
	cmd.Flags().BoolVar(&settings.Telemetry.Enabled, "telemetry", settings.Telemetry.Enabled, "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Telemetry.Listen, "listen", settings.Telemetry.Listen, "Listen address and port of telemetry endpoint")

	return cmd
}

// Run starts every enabled component and blocks until ctx is cancelled.
func Run(ctx context.Context, settings *conf.Settings) error {
	log := logger.Global().Module("serve")

	if err := telemetry.InitSentry(settings, logger.Global().Module("telemetry")); err != nil {
		log.Warn("Error reporting unavailable", logger.Error(err))
	}
	defer telemetry.Flush()

	m, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	store, err := datastore.Connect(settings, logger.Global().Module("datastore"), m.Datastore)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close database", logger.Error(err))
		}
	}()

	opts := []tracker.Option{tracker.WithMetrics(m.Tracker)}
	if ttl := settings.WebServer.ReportCacheTTL; ttl > 0 {
		opts = append(opts, tracker.WithReportCache(ttl))
	}
	if settings.MQTT.Enabled {
		publisher, disconnect, err := startMQTT(ctx, settings, m)
		if err != nil {
			return err
		}
		defer disconnect()
		opts = append(opts, tracker.WithNotifier(publisher))
	}

	service := tracker.NewService(store, logger.Global().Module("tracker"), opts...)

	// prime the report gauges before the first request
	if report, err := service.Report(ctx); err != nil {
		log.Warn("Failed to load game history", logger.Error(err))
	} else {
		log.Info("Game history loaded",
			logger.Int("games", report.Total),
			logger.Int("wins", report.Wins))
	}

	server, err := httpcontroller.New(settings, store, service, m.HTTP, logger.Global().Module("http"))
	if err != nil {
		return err
	}

	// the first component to fail stops the others
	g, gctx := errgroup.WithContext(ctx)

	if settings.Telemetry.Enabled {
		endpoint, err := observability.NewEndpoint(settings, m, logger.Global().Module("telemetry"))
		if err != nil {
			return err
		}
		done, err := endpoint.Start(gctx)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return <-done
		})
	}

	g.Go(func() error {
		return server.Start(gctx)
	})

	return g.Wait()
}

// startMQTT connects to the broker and returns the game publisher.
// An unreachable broker is only logged: games are still stored, and each
// failed publish is logged by the tracker.
func startMQTT(ctx context.Context, settings *conf.Settings, m *observability.Metrics) (*mqtt.GamePublisher, func(), error) {
	mqttLog := logger.Global().Module("mqtt")

	client, err := mqtt.NewClient(settings, m.MQTT, mqttLog)
	if err != nil {
		return nil, nil, err
	}

	if err := client.Connect(ctx); err != nil {
		mqttLog.Warn("MQTT broker unreachable, retrying in the background",
			logger.String("broker", settings.MQTT.Broker),
			logger.Error(err))
	}

	return mqtt.NewGamePublisher(client, settings.MQTT.Topic, mqttLog), client.Disconnect, nil
}
