package workers

import (
	"chat-relay/observability"
	"context"
	"log/slog"
	"reflect"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically samples the length and capacity of internal buffers.
// Reading len(channel) and cap(channel) never blocks, so sampling does not
// interfere with the producers or the consumers of those channels.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	metrics        *observability.Metrics
	channels       []NamedChannel
	warnRatio      float64
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger, metrics *observability.Metrics,
	channels []NamedChannel, metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:            log,
		metrics:        metrics,
		channels:       channels,
		warnRatio:      0.8,
		metricInterval: metricInterval,
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel sampling")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

// Sample records the fill level of every channel once.
func (w *ChannelCapacityWorker) Sample() {
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		capacity, length := v.Cap(), v.Len()
		w.metrics.SetChannelLoad(nc.Name, length, capacity)
		if capacity > 0 && float64(length) >= w.warnRatio*float64(capacity) {
			w.log.Warn("Channel almost full", "name", nc.Name, "length", length, "capacity", capacity)
		}
	}
}
