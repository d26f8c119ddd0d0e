package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/liftsim/api/fleet"
	"github.com/kilianp07/liftsim/config"
	"github.com/kilianp07/liftsim/core/dispatch"
	coremetrics "github.com/kilianp07/liftsim/core/metrics"
	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/infra/logger"
	"github.com/kilianp07/liftsim/infra/metrics"
	"github.com/kilianp07/liftsim/infra/mqtt"
	"github.com/kilianp07/liftsim/internal/eventbus"
)

// Service orchestrates the dispatcher, the MQTT transport, the metrics
// sinks and the HTTP status API.
type Service struct {
	Dispatcher *dispatch.Dispatcher

	cfg    *config.Config
	client *mqtt.PahoClient
	bus    *eventbus.Bus[model.ArrivalEvent]
	log    logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken,
			cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket,
		)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MetricsSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New[model.ArrivalEvent]()
	disp, err := dispatch.New(cfg.Sim, nil, nil, logger.New("dispatch"), sink,
		func(unitID, level int) {
			bus.Publish(model.ArrivalEvent{UnitID: unitID, Level: level, Time: time.Now()})
		})
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}

	svc := &Service{Dispatcher: disp, cfg: cfg, bus: bus, log: logg}
	if cfg.MQTT.Broker != "" {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.client = client
	} else {
		logg.Warnf("no MQTT broker configured, running without transport")
	}
	return svc, nil
}

// Run starts the tick loop and the transports, blocking until ctx is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.Dispatcher.Run(ctx, s.cfg.Sim.Tick())

	if s.client != nil {
		listener := mqtt.NewCommandListener(
			s.Dispatcher, s.cfg.MQTT, s.cfg.Sim.Units, s.cfg.Sim.Levels,
			logger.New("mqtt_commands"),
		)
		if err := listener.Start(s.client); err != nil {
			return fmt.Errorf("command listener: %w", err)
		}
		broadcaster := mqtt.NewBroadcaster(
			s.client, s.Dispatcher, s.bus, s.cfg.MQTT, logger.New("mqtt_broadcaster"),
		)
		go broadcaster.Run(ctx)
	}

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.API.Enabled {
		go s.serveAPI(ctx)
	}

	<-ctx.Done()
	return nil
}

func (s *Service) serveAPI(ctx context.Context) {
	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: fleet.NewMux(s.Dispatcher)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Errorf("api server: %v", err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
