package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
}

func NewPromObs() *PromObs {
	allowed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "secbox_access_allowed_total",
		Help: "Credentials accepted by whitelist or prefix rule.",
	})
	denied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "secbox_access_denied_total",
		Help: "Credentials rejected by the scanner.",
	})
	unlocks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "secbox_unlocks_total",
		Help: "Completed unlock sequences.",
	})
	unlockRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "secbox_unlock_rejected_total",
		Help: "Unlock requests ignored because a sequence was already running.",
	})
	cmdRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "secbox_commands_rejected_total",
		Help: "Remote commands rejected by the dispatch whitelist.",
	})
	pubFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "secbox_publish_failures_total",
		Help: "Failed publish attempts returned to the queue head.",
	})
	evicted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "secbox_queue_evicted_total",
		Help: "Telemetry dropped from the outbound queue on overflow.",
	})
	connected := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "secbox_link_connected",
		Help: "1 while the broker link is up.",
	})
	queueLen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "secbox_outbound_queue_length",
		Help: "Messages buffered in the outbound queue.",
	})
	goroutines := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "secbox_goroutines",
		Help: "Goroutines live in the process.",
	})

	prometheus.MustRegister(allowed, denied, unlocks, unlockRejected,
		cmdRejected, pubFailures, evicted, connected, queueLen, goroutines)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"secbox_access_allowed_total":    allowed,
			"secbox_access_denied_total":     denied,
			"secbox_unlocks_total":           unlocks,
			"secbox_unlock_rejected_total":   unlockRejected,
			"secbox_commands_rejected_total": cmdRejected,
			"secbox_publish_failures_total":  pubFailures,
			"secbox_queue_evicted_total":     evicted,
		},
		gauges: map[string]prometheus.Gauge{
			"secbox_link_connected":        connected,
			"secbox_outbound_queue_length": queueLen,
			"secbox_goroutines":            goroutines,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("CRITICAL: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(fmt.Sprintf(" %s=%v", f.Key, f.Value))
	}
	return b.String()
}

var _ ports.Observability = (*PromObs)(nil)
