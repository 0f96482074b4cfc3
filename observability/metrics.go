package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the counters exposed on /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ConnectionsActive prometheus.Gauge
	UsersOnline       prometheus.Gauge
	MessagesSent      *prometheus.CounterVec
	EventsDelivered   *prometheus.CounterVec
	DeliveryFailures  *prometheus.CounterVec
	MessagesSeen      prometheus.Counter
	ProcessMemory     prometheus.Gauge
	ProcessCPU        prometheus.Gauge
	Goroutines        prometheus.Gauge
	ChannelLength     *prometheus.GaugeVec
	ChannelCapacity   *prometheus.GaugeVec

	mu     sync.RWMutex
	latest Snapshot
}

// Snapshot is the last process sample, served on the debug endpoint.
type Snapshot struct {
	RSSMb      uint64    `json:"rss_mb"`
	CPUPercent float64   `json:"cpu_percent"`
	Goroutines int       `json:"goroutines"`
	Online     int       `json:"online_users"`
	SampledAt  time.Time `json:"sampled_at"`
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chat_connections_active",
			Help: "Number of live real-time connections",
		}),
		UsersOnline: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chat_users_online",
			Help: "Number of users holding at least one connection",
		}),
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Messages accepted by the pipeline",
		}, []string{"type"}),
		EventsDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_events_delivered_total",
			Help: "Events pushed to connections",
		}, []string{"event"}),
		DeliveryFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_delivery_failures_total",
			Help: "Events a connection failed to accept",
		}, []string{"event"}),
		MessagesSeen: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_seen_total",
			Help: "Messages flipped to seen",
		}),
		ProcessMemory: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chat_process_rss_bytes",
			Help: "Resident memory of the server process",
		}),
		ProcessCPU: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chat_process_cpu_percent",
			Help: "CPU usage of the server process",
		}),
		Goroutines: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chat_goroutines",
			Help: "Number of goroutines",
		}),
		ChannelLength: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chat_channel_length",
			Help: "Items waiting in an internal buffer",
		}, []string{"channel"}),
		ChannelCapacity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chat_channel_capacity",
			Help: "Capacity of an internal buffer",
		}, []string{"channel"}),
	}
}

func (m *Metrics) IncrMessageSent(messageType string) {
	if m == nil {
		return
	}
	m.MessagesSent.WithLabelValues(messageType).Inc()
}

func (m *Metrics) IncrDelivered(eventName string) {
	if m == nil {
		return
	}
	m.EventsDelivered.WithLabelValues(eventName).Inc()
}

func (m *Metrics) IncrDeliveryFailure(eventName string) {
	if m == nil {
		return
	}
	m.DeliveryFailures.WithLabelValues(eventName).Inc()
}

func (m *Metrics) AddSeen(n int) {
	if m == nil {
		return
	}
	m.MessagesSeen.Add(float64(n))
}

func (m *Metrics) SetPresence(connections, users int) {
	if m == nil {
		return
	}
	m.ConnectionsActive.Set(float64(connections))
	m.UsersOnline.Set(float64(users))
}

func (m *Metrics) SetChannelLoad(name string, length, capacity int) {
	if m == nil {
		return
	}
	m.ChannelLength.WithLabelValues(name).Set(float64(length))
	m.ChannelCapacity.WithLabelValues(name).Set(float64(capacity))
}

// Record stores a process sample and mirrors it into the gauges.
func (m *Metrics) Record(s Snapshot) {
	if m == nil {
		return
	}
	m.ProcessMemory.Set(float64(s.RSSMb * 1024 * 1024))
	m.ProcessCPU.Set(s.CPUPercent)
	m.Goroutines.Set(float64(s.Goroutines))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = s
}

func (m *Metrics) Latest() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}
