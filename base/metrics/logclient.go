package metrics

import (
	"strings"
	"sync"

	"github.com/x-xyz/keeper/base/log"
)

// LogClient stands in for the statsd agent: every metric goes to the debug log and
// counts are kept in process, so a run without datadog can still be inspected.
type LogClient struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewLogged returns a Service without a statsd agent together with its client.
func NewLogged(namespace string) (Service, *LogClient) {
	cli := &LogClient{}
	return newDDMetrics(cli, namespace, nil), cli
}

func countKey(name string, tags []string) string {
	if len(tags) == 0 {
		return name
	}
	return name + "|" + strings.Join(tags, ",")
}

// Counted is the running total of Count calls for name with exactly tags, in
// datadog form ("outcome:settled").
func (lc *LogClient) Counted(name string, tags ...string) int64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.counts[countKey(name, tags)]
}

func (lc *LogClient) Gauge(name string, value float64, tags []string, rate float64) error {
	log.Log().WithFields(log.Fields{"key": name, "val": value, "tags": tags}).Debug("metric gauge")
	return nil
}

func (lc *LogClient) Count(name string, value int64, tags []string, rate float64) error {
	lc.mu.Lock()
	if lc.counts == nil {
		lc.counts = map[string]int64{}
	}
	lc.counts[countKey(name, tags)] += value
	lc.mu.Unlock()
	log.Log().WithFields(log.Fields{"key": name, "val": value, "tags": tags}).Debug("metric count")
	return nil
}

func (lc *LogClient) Histogram(name string, value float64, tags []string, rate float64) error {
	log.Log().WithFields(log.Fields{"key": name, "val": value, "tags": tags}).Debug("metric histogram")
	return nil
}

func (lc *LogClient) TimeInMilliseconds(name string, value float64, tags []string, rate float64) error {
	log.Log().WithFields(log.Fields{"key": name, "ms": value, "tags": tags}).Debug("metric time")
	return nil
}
