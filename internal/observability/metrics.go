package observability

import (
	"io"
	"net/http"
	"sync"
	"time"
)

// Metrics holds the pipeline counters. All methods are nil-safe so components
// can run without a registry.
type Metrics struct {
	apiRequests   *CounterVec
	apiLatency    *HistogramVec
	chunks        *CounterVec
	transcribe    *HistogramVec
	forwards      *CounterVec
	restarts      *CounterVec
	feedEvents    *CounterVec
	utterances    *CounterVec
	queueDepth    *GaugeVec
	captureState  *GaugeVec
	providerState *GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests:   NewCounterVec("pulse_api_requests_total", "Dashboard API requests", "method", "route", "status"),
		apiLatency:    NewHistogramVec("pulse_api_request_duration_seconds", "Dashboard API latency", nil, "method", "route"),
		chunks:        NewCounterVec("pulse_chunks_total", "Audio chunks by transcription outcome", "outcome"),
		transcribe:    NewHistogramVec("pulse_transcription_duration_seconds", "Provider call latency", nil, "provider", "status"),
		forwards:      NewCounterVec("pulse_ingestion_forwards_total", "Transcript forwards", "status"),
		restarts:      NewCounterVec("pulse_recorder_restarts_total", "Watchdog recorder restarts", "reason"),
		feedEvents:    NewCounterVec("pulse_feed_events_total", "Realtime feed events", "kind", "result"),
		utterances:    NewCounterVec("pulse_utterances_processed_total", "Utterances processed per stage", "stage"),
		queueDepth:    NewGaugeVec("pulse_ingestion_queue_depth", "Pending audio chunks"),
		captureState:  NewGaugeVec("pulse_capture_state", "1 for the current capture state", "state"),
		providerState: NewGaugeVec("pulse_provider_disabled", "1 when a provider is disabled for the session", "provider"),
	}
}

// Init returns the process-wide registry.
func Init() *Metrics {
	initOnce.Do(func() { instance = NewMetrics() })
	return instance
}

func Current() *Metrics { return instance }

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) IncChunk(outcome string) {
	if m == nil {
		return
	}
	m.chunks.Inc(outcome)
}

func (m *Metrics) ChunkCount(outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.chunks.Value(outcome)
}

func (m *Metrics) ObserveTranscription(provider, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.transcribe.Observe(dur.Seconds(), provider, status)
}

func (m *Metrics) IncForward(status string) {
	if m == nil {
		return
	}
	m.forwards.Inc(status)
}

func (m *Metrics) IncRestart(reason string) {
	if m == nil {
		return
	}
	m.restarts.Inc(reason)
}

func (m *Metrics) RestartCount(reason string) float64 {
	if m == nil {
		return 0
	}
	return m.restarts.Value(reason)
}

func (m *Metrics) IncFeedEvent(kind, result string) {
	if m == nil {
		return
	}
	m.feedEvents.Inc(kind, result)
}

func (m *Metrics) IncUtterance(stage string) {
	if m == nil {
		return
	}
	m.utterances.Inc(stage)
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) SetCaptureState(state string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		m.captureState.Set(v, s)
	}
}

func (m *Metrics) SetProviderDisabled(provider string, disabled bool) {
	if m == nil {
		return
	}
	v := 0.0
	if disabled {
		v = 1
	}
	m.providerState.Set(v, provider)
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, wr := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.chunks, m.transcribe, m.forwards,
		m.restarts, m.feedEvents, m.utterances, m.queueDepth, m.captureState, m.providerState,
	} {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}
