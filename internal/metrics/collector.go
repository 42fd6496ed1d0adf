package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StatusCounter returns the number of active orders per status.
type StatusCounter func(ctx context.Context) (map[string]int, error)

// OrderCollector reports active order counts at scrape time.
type OrderCollector struct {
	count  StatusCounter
	logger *slog.Logger

	active *prometheus.Desc
}

// NewOrderCollector creates a collector backed by count.
func NewOrderCollector(count StatusCounter, logger *slog.Logger) *OrderCollector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OrderCollector{
		count:  count,
		logger: logger,
		active: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "orders", "active"),
			"Active orders by status.",
			[]string{"status"}, nil,
		),
	}
}

func (c *OrderCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.active
}

func (c *OrderCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.count(ctx)
	if err != nil {
		c.logger.Warn("failed to count orders", "error", err)
		return
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(n), status)
	}
}
