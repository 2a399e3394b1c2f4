package observability

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/botvine/huddle/internal/utils"
)

// Metrics is a small hand-rolled Prometheus-exposition registry covering the
// bot's three external surfaces: Slack events, LLM calls and Calendar calls.
type Metrics struct {
	slackEvents    *CounterVec
	slackEventLag  *HistogramVec
	llmRequests    *CounterVec
	llmLatency     *HistogramVec
	llmTokens      *CounterVec
	calendarCalls  *CounterVec
	calendarTime   *HistogramVec
	oauthCallbacks *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return utils.GetEnvAsBool("METRICS_ENABLED", false, nil)
}

func Current() *Metrics {
	return instance
}

func Init() *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = &Metrics{
			slackEvents: NewCounterVec("huddle_slack_events_total", "Slack events by type/outcome.", []string{"type", "outcome"}),
			slackEventLag: NewHistogramVec(
				"huddle_slack_event_handle_seconds",
				"Time spent handling a Slack event by type.",
				[]string{"type"},
				[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			),
			llmRequests: NewCounterVec("huddle_llm_requests_total", "LLM requests by model/endpoint/status.", []string{"model", "endpoint", "status"}),
			llmLatency: NewHistogramVec(
				"huddle_llm_request_duration_seconds",
				"LLM request latency in seconds by model/endpoint/status.",
				[]string{"model", "endpoint", "status"},
				[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			),
			llmTokens:     NewCounterVec("huddle_llm_tokens_total", "LLM tokens by model/direction.", []string{"model", "direction"}),
			calendarCalls: NewCounterVec("huddle_calendar_calls_total", "Google Calendar calls by op/status.", []string{"op", "status"}),
			calendarTime: NewHistogramVec(
				"huddle_calendar_call_duration_seconds",
				"Google Calendar call latency in seconds by op.",
				[]string{"op"},
				[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			),
			oauthCallbacks: NewCounterVec("huddle_oauth_callbacks_total", "OAuth callback results.", []string{"status"}),
		}
	})
	return instance
}

func (m *Metrics) ObserveSlackEvent(eventType, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	eventType = orUnknown(eventType)
	outcome = orUnknown(outcome)
	m.slackEvents.Inc(eventType, outcome)
	if dur > 0 {
		m.slackEventLag.Observe(dur.Seconds(), eventType)
	}
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model = orUnknown(model)
	endpoint = orUnknown(endpoint)
	status = orUnknown(status)
	m.llmRequests.Inc(model, endpoint, status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), model, endpoint, status)
	}
	if inputTokens > 0 {
		m.llmTokens.Add(float64(inputTokens), model, "input")
	}
	if outputTokens > 0 {
		m.llmTokens.Add(float64(outputTokens), model, "output")
	}
}

func (m *Metrics) ObserveCalendarCall(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	op = orUnknown(op)
	m.calendarCalls.Inc(op, orUnknown(status))
	if dur > 0 {
		m.calendarTime.Observe(dur.Seconds(), op)
	}
}

func (m *Metrics) ObserveOAuthCallback(status string) {
	if m == nil {
		return
	}
	m.oauthCallbacks.Inc(orUnknown(status))
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	if err := m.slackEvents.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.slackEventLag.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.llmRequests.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.llmLatency.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.llmTokens.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.calendarCalls.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.calendarTime.WritePrometheus(w); err != nil {
		return err
	}
	return m.oauthCallbacks.WritePrometheus(w)
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}

// ---- lightweight metric primitives (Prometheus exposition) ----

type CounterVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (c *CounterVec) Inc(values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl]++
	c.mu.Unlock()
}

func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl] += v
	c.mu.Unlock()
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.values {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", c.name, k, v); err != nil {
			return err
		}
	}
	return nil
}

type HistogramVec struct {
	name       string
	help       string
	labelNames []string
	buckets    []float64
	mu         sync.RWMutex
	values     map[string]*histogram
}

type histogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	total   uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	return &HistogramVec{name: name, help: help, labelNames: labels, buckets: buckets, values: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	lbl := labelString(h.labelNames, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist, ok := h.values[lbl]
	if !ok {
		hist = &histogram{
			buckets: h.buckets,
			counts:  make([]uint64, len(h.buckets)+1),
		}
		h.values[lbl] = hist
	}
	hist.sum += v
	hist.total++
	for i, b := range hist.buckets {
		if v <= b {
			hist.counts[i]++
		}
	}
	hist.counts[len(hist.counts)-1]++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", h.name, h.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s histogram\n", h.name); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for k, v := range h.values {
		for i, b := range v.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, fmt.Sprintf("%g", b)), v.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, "+Inf"), v.counts[len(v.counts)-1]); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %f\n", h.name, k, v.sum); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_count%s %d\n", h.name, k, v.total); err != nil {
			return err
		}
	}
	return nil
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("{")
	for i, name := range names {
		if i > 0 {
			b.WriteString(",")
		}
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		b.WriteString(name)
		b.WriteString("=\"")
		b.WriteString(escapeLabel(val))
		b.WriteString("\"")
	}
	b.WriteString("}")
	return b.String()
}

func escapeLabel(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	v = strings.ReplaceAll(v, "\n", "\\n")
	return v
}

func withLe(labels string, le string) string {
	le = escapeLabel(le)
	if labels == "" || labels == "{}" {
		return "{le=\"" + le + "\"}"
	}
	if strings.HasSuffix(labels, "}") {
		return strings.TrimSuffix(labels, "}") + ",le=\"" + le + "\"}"
	}
	return "{le=\"" + le + "\"}"
}
