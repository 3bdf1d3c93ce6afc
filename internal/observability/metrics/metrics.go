package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for the lead and booking engine.
type EngineMetrics struct {
	bookingAttempts *prometheus.CounterVec
	bridgeCalls     *prometheus.CounterVec
	bridgeLatency   *prometheus.HistogramVec
	llmRequests     *prometheus.CounterVec
	leadStages      *prometheus.CounterVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		bookingAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nextchat",
			Subsystem: "engine",
			Name:      "booking_attempts_total",
			Help:      "Scheduling orchestrator outcomes per inbound message",
		}, []string{"outcome"}),
		bridgeCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nextchat",
			Subsystem: "engine",
			Name:      "bridge_calls_total",
			Help:      "Scheduling bridge calls by method and status",
		}, []string{"method", "status"}),
		bridgeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nextchat",
			Subsystem: "engine",
			Name:      "bridge_call_seconds",
			Help:      "Latency of scheduling bridge round-trips",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"method"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nextchat",
			Subsystem: "engine",
			Name:      "llm_requests_total",
			Help:      "Text generation requests by provider and status",
		}, []string{"provider", "status"}),
		leadStages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nextchat",
			Subsystem: "engine",
			Name:      "lead_stage_total",
			Help:      "Extracted lead stage per generated reply",
		}, []string{"stage"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingAttempts, m.bridgeCalls, m.bridgeLatency, m.llmRequests, m.leadStages)
	return m
}

func (m *EngineMetrics) ObserveBookingAttempt(outcome string) {
	if m == nil {
		return
	}
	m.bookingAttempts.WithLabelValues(outcome).Inc()
}

func (m *EngineMetrics) ObserveBridgeCall(method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.bridgeCalls.WithLabelValues(method, status).Inc()
	m.bridgeLatency.WithLabelValues(method).Observe(seconds)
}

func (m *EngineMetrics) ObserveLLMRequest(provider, status string) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(provider, status).Inc()
}

func (m *EngineMetrics) ObserveLeadStage(stage string) {
	if m == nil {
		return
	}
	m.leadStages.WithLabelValues(stage).Inc()
}
