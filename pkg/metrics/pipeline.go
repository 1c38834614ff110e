package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the pipeline counters.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
	OutcomePending   = "pending"
)

// Pipeline counts checkout, capture and webhook outcomes plus the best-effort
// side effects that were swallowed. A nil *Pipeline is a no-op.
type Pipeline struct {
	checkouts  *prometheus.CounterVec
	captures   *prometheus.CounterVec
	webhooks   *prometheus.CounterVec
	bestEffort *prometheus.CounterVec
	dropped    prometheus.Counter
}

func NewPipeline(reg prometheus.Registerer) *Pipeline {
	if reg == nil {
		return &Pipeline{}
	}
	p := &Pipeline{
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_requests_total",
			Help: "Checkout attempts by flow and outcome.",
		}, []string{"flow", "outcome"}),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capture_requests_total",
			Help: "Capture and reconcile attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Provider webhook deliveries by provider and outcome.",
		}, []string{"provider", "outcome"}),
		bestEffort: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "best_effort_failures_total",
			Help: "Swallowed failures of best-effort side effects by step.",
		}, []string{"step"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stock_events_dropped_total",
			Help: "Stock events not delivered to a slow subscriber.",
		}),
	}
	reg.MustRegister(p.checkouts, p.captures, p.webhooks, p.bestEffort, p.dropped)
	return p
}

func (p *Pipeline) Checkout(flow, outcome string) {
	if p == nil || p.checkouts == nil {
		return
	}
	p.checkouts.WithLabelValues(normalizeLabel(flow), normalizeLabel(outcome)).Inc()
}

func (p *Pipeline) Capture(provider, outcome string) {
	if p == nil || p.captures == nil {
		return
	}
	p.captures.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

func (p *Pipeline) Webhook(provider, outcome string) {
	if p == nil || p.webhooks == nil {
		return
	}
	p.webhooks.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

// BestEffortFailure counts a logged and discarded side-effect failure.
func (p *Pipeline) BestEffortFailure(step string) {
	if p == nil || p.bestEffort == nil {
		return
	}
	p.bestEffort.WithLabelValues(normalizeLabel(step)).Inc()
}

// StockEventDropped is suitable as an events.Hub drop callback.
func (p *Pipeline) StockEventDropped() {
	if p == nil || p.dropped == nil {
		return
	}
	p.dropped.Inc()
}
