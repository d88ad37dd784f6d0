// Package securebox wires the whole box together and exposes a small
// lifecycle surface for embedding it in any Go process: New, Start, Run,
// Shutdown. Every peripheral and infrastructure dependency can be replaced
// through an Option, which is also how the simulators and tests plug in.
package securebox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/adapters/auditlog"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/adapters/mqtt"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/adapters/observability"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/adapters/queue"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/adapters/sim"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/config"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/controller"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/dispatch"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/feedback"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/link"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/scanner"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/tasks"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/unlock"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/domain"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/mailbox"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

// Config is the full box configuration, loaded from YAML.
type Config = config.Config

// LoadConfig reads, defaults, and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Option customizes the dependencies used by Box.
type Option func(*overrides)

type overrides struct {
	transport ports.Transport
	queue     ports.OutboundQueue
	obs       ports.Observability
	display   ports.Display
	actuator  ports.Actuator
	strip     ports.LightStrip
	reader    ports.CredentialReader
	contact   ports.ContactSensor
	audit     controller.AuditStore
}

// WithTransport injects a custom broker transport (MQTT, test doubles, etc.).
func WithTransport(t ports.Transport) Option {
	return func(o *overrides) { o.transport = t }
}

// WithQueue swaps the bounded outbound queue implementation.
func WithQueue(q ports.OutboundQueue) Option {
	return func(o *overrides) { o.queue = q }
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs ports.Observability) Option {
	return func(o *overrides) { o.obs = obs }
}

// WithDisplay injects the status display peripheral.
func WithDisplay(d ports.Display) Option {
	return func(o *overrides) { o.display = d }
}

// WithActuator injects the lock actuator peripheral.
func WithActuator(a ports.Actuator) Option {
	return func(o *overrides) { o.actuator = a }
}

// WithStrip injects the LED strip peripheral.
func WithStrip(s ports.LightStrip) Option {
	return func(o *overrides) { o.strip = s }
}

// WithReader injects the credential reader peripheral.
func WithReader(r ports.CredentialReader) Option {
	return func(o *overrides) { o.reader = r }
}

// WithContact injects the drawer contact sensor.
func WithContact(c ports.ContactSensor) Option {
	return func(o *overrides) { o.contact = c }
}

// WithAudit injects a custom audit store in place of Postgres.
func WithAudit(a controller.AuditStore) Option {
	return func(o *overrides) { o.audit = a }
}

// Box owns every loop of the system and their shared infrastructure.
type Box struct {
	cfg       *config.Config
	obs       ports.Observability
	display   ports.Display
	transport ports.Transport
	queue     ports.OutboundQueue
	contact   ports.ContactSensor
	audit     controller.AuditStore

	link    *link.Manager
	scanner *scanner.Scanner
	ctrl    *controller.Controller
	runner  *tasks.Runner

	db          *sql.DB
	metricsSrv  *http.Server
	gaugeStopCh chan struct{}
}

// New builds a Box from the configuration. Defaults are the MQTT transport,
// Prometheus observability, and simulated peripherals; real hardware plugs
// in through the options.
func New(cfg *config.Config, opts ...Option) (*Box, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var o overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	obs := o.obs
	if obs == nil {
		obs = observability.NewPromObs()
	}

	transport := o.transport
	if transport == nil {
		transport = mqtt.NewTransport(cfg.Link.ClientID, cfg.Link.KeepAlive)
	}

	q := o.queue
	if q == nil {
		q = queue.NewOutQueue(cfg.Link.QueueCapacity)
	}

	display := o.display
	if display == nil {
		display = sim.NewDisplay()
	}

	strip := o.strip
	if strip == nil {
		strip = sim.NewStrip(cfg.Feedback.LedCount)
	}
	strip.SetBrightness(cfg.Feedback.Brightness)

	reader := o.reader
	if reader == nil {
		reader = sim.NewReader(nil, false)
	}

	actuator := o.actuator
	contact := o.contact
	if actuator == nil {
		// A simulated solenoid and drawer share one bench so the confirm
		// phase sees real movement.
		bench := sim.NewBench(cfg.Unlock.PulseDuration + 300*time.Millisecond)
		actuator = bench.Actuator()
		if contact == nil && cfg.Contact.Enabled {
			contact = bench.Contact()
		}
	}

	var (
		db    *sql.DB
		audit controller.AuditStore
		err   error
	)
	if o.audit != nil {
		audit = o.audit
	} else if cfg.Audit.ConnString != "" {
		db, err = sql.Open("postgres", cfg.Audit.ConnString)
		if err != nil {
			display.ShowLines("FAULT", "audit store", "")
			return nil, fmt.Errorf("open audit store: %w", err)
		}
		audit = auditlog.NewPostgresStore(db, cfg.Audit.Table)
	}

	mgr := link.NewManager(transport, q, obs, link.Options{
		Topic:          cfg.Link.Topic,
		Primary:        cfg.Link.Primary,
		Fallback:       cfg.Link.Fallback,
		Backoff:        cfg.Link.Backoff,
		RxInterval:     cfg.Link.RxInterval,
		TxInterval:     cfg.Link.TxInterval,
		AnnounceOnline: true,
	})

	events := mailbox.New[domain.SensorEvent]()
	commands := make(chan domain.Command, 8)

	mgr.SetHandler(dispatch.New(obs, mgr, commands).Handle)

	animator := feedback.NewAnimator(strip)
	orch := unlock.New(actuator, display, animator, mgr, contact, obs, unlock.Options{
		PulseDuration:  cfg.Unlock.PulseDuration,
		ConfirmTimeout: cfg.Unlock.ConfirmTimeout,
	})

	scn := scanner.New(reader, events, obs, scanner.Options{
		Interval:        cfg.Scanner.Interval,
		DebounceSamples: cfg.Scanner.DebounceSamples,
		DebounceDelay:   cfg.Scanner.DebounceDelay,
		Whitelist:       cfg.Scanner.Whitelist,
		AllowPrefixes:   cfg.Scanner.AllowPrefixes,
	})

	ctrl := controller.New(events, commands, orch, mgr, display, strip, animator, contact, audit, obs, controller.Options{
		ContactDebounce: cfg.Contact.Debounce,
	})

	return &Box{
		cfg:       cfg,
		obs:       obs,
		display:   display,
		transport: transport,
		queue:     q,
		contact:   contact,
		audit:     audit,
		link:      mgr,
		scanner:   scn,
		ctrl:      ctrl,
		runner:    tasks.NewRunner(obs),
		db:        db,
	}, nil
}

// Link exposes the broker link for publishing ad-hoc telemetry.
func (b *Box) Link() *link.Manager {
	return b.link
}

// Start launches the link loops, the metrics endpoint, and the boot sequence.
// It returns immediately; call Run to block on a context instead.
func (b *Box) Start(ctx context.Context) error {
	if b == nil {
		return fmt.Errorf("box is nil")
	}

	b.display.ShowLines("BOOT", "Connecting", "")

	b.runner.Go(ctx, "link-rx", b.link.RunRx)
	b.runner.Go(ctx, "link-tx", b.link.RunTx)

	b.startMetrics()
	go b.boot(ctx)
	return nil
}

// boot waits for the broker before bringing the interactive loops up, so
// access decisions are never made while their telemetry has nowhere to go
// but the queue.
func (b *Box) boot(ctx context.Context) {
	if err := b.link.WaitUntilConnected(ctx); err != nil {
		return
	}
	b.display.ShowLines("ONLINE", b.link.EndpointInUse(), "")

	b.runner.Go(ctx, "scanner", b.scanner.Run)
	b.runner.Go(ctx, "events", b.ctrl.RunEvents)
	b.runner.Go(ctx, "commands", b.ctrl.RunCommands)
	if b.contact != nil {
		b.runner.Go(ctx, "contact", b.ctrl.RunContact)
	}
	if b.audit != nil {
		b.runner.Go(ctx, "audit", b.ctrl.RunAudit)
	}

	b.display.ShowLines("Enter PIN", "or", "Scan card")
	b.link.PublishLog("info", "boot complete")
}

// Run starts the box and blocks until the context is cancelled, then shuts
// down gracefully.
func (b *Box) Run(ctx context.Context) error {
	if err := b.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := b.Shutdown(shutdownCtx)
	b.runner.Wait()
	return err
}

// Shutdown stops the metrics server, closes the broker session, and releases
// the audit store.
func (b *Box) Shutdown(ctx context.Context) error {
	var errs []error

	if b.gaugeStopCh != nil {
		close(b.gaugeStopCh)
		b.gaugeStopCh = nil
	}

	if b.metricsSrv != nil {
		if err := b.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	b.transport.Close()

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (b *Box) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	b.metricsSrv = &http.Server{
		Addr:    b.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := b.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	b.gaugeStopCh = make(chan struct{})
	go b.recordResourceGauges(b.gaugeStopCh, time.Second)
}

func (b *Box) recordResourceGauges(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.obs.SetGauge("secbox_goroutines", float64(runtime.NumGoroutine()))
			b.obs.SetGauge("secbox_outbound_queue_length", float64(b.queue.Len()))
		}
	}
}
