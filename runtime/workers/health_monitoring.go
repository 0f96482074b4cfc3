package workers

import (
	"chat-relay/contract"
	"chat-relay/observability"
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// HealthMonitoringWorker samples the server process every metricInterval
// and publishes memory, CPU, goroutines and presence gauges.
type HealthMonitoringWorker struct {
	log            *slog.Logger
	metrics        *observability.Metrics
	presence       contract.IPresenceRegistry
	metricInterval time.Duration
}

func NewHealthMonitoringWorker(
	log *slog.Logger,
	metrics *observability.Metrics,
	presence contract.IPresenceRegistry,
	metricInterval time.Duration,
) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{
		log:            log,
		metrics:        metrics,
		presence:       presence,
		metricInterval: metricInterval,
	}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			snapshot, err := w.Sample(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "error", err)
				continue
			}
			w.metrics.Record(snapshot)
		}
	}
}

// Sample reads one process snapshot.
func (w *HealthMonitoringWorker) Sample(p *process.Process) (observability.Snapshot, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return observability.Snapshot{}, err
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return observability.Snapshot{}, err
	}
	return observability.Snapshot{
		RSSMb:      memInfo.RSS / 1024 / 1024,
		CPUPercent: cpu,
		Goroutines: runtime.NumGoroutine(),
		Online:     len(w.presence.OnlineUsers()),
		SampledAt:  time.Now().UTC(),
	}, nil
}
