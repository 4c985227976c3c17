// Package metrics exposes Prometheus counters for the upstream client, the
// session layer and the chat gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Probe results recorded by RecordProbe.
const (
	ProbeUsable   = "usable"
	ProbeUnusable = "unusable"
	ProbeError    = "error"
	ProbeCached   = "cached"
)

// Collector records bot metrics. A nil *Collector is valid and records
// nothing.
type Collector struct {
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	probes           *prometheus.CounterVec
	logins           *prometheus.CounterVec
	commands         *prometheus.CounterVec
	gatewayRequests  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vrchatbot_upstream_requests_total",
			Help: "Requests sent to the VRChat API.",
		}, []string{"method", "route", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vrchatbot_upstream_request_duration_seconds",
			Help:    "Latency of requests sent to the VRChat API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vrchatbot_session_probes_total",
			Help: "Session usability checks by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vrchatbot_logins_total",
			Help: "Password and two-factor login attempts by outcome.",
		}, []string{"outcome"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vrchatbot_commands_total",
			Help: "Chat commands handled.",
		}, []string{"command"}),
		gatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vrchatbot_gateway_requests_total",
			Help: "HTTP gateway requests by route and status.",
		}, []string{"route", "status"}),
	}
	reg.MustRegister(
		c.upstreamRequests,
		c.upstreamLatency,
		c.probes,
		c.logins,
		c.commands,
		c.gatewayRequests,
	)
	return c
}

// ObserveRequest records one upstream call. Status 0 means the request failed
// before a response arrived.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.upstreamRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.upstreamLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordProbe counts a usability check.
func (c *Collector) RecordProbe(result string) {
	if c == nil {
		return
	}
	c.probes.WithLabelValues(result).Inc()
}

// RecordLogin counts a login step outcome.
func (c *Collector) RecordLogin(outcome string) {
	if c == nil {
		return
	}
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordCommand counts a handled chat command.
func (c *Collector) RecordCommand(command string) {
	if c == nil {
		return
	}
	c.commands.WithLabelValues(command).Inc()
}

// RecordGatewayRequest counts a served gateway request.
func (c *Collector) RecordGatewayRequest(route string, status int) {
	if c == nil {
		return
	}
	c.gatewayRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler serves the gathered metrics in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
