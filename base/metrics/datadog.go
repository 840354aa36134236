package metrics

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/statsd"

	"github.com/x-xyz/keeper/base/log"
)

const (
	defaultDdPort = 8125
	// buffer 10 counters before sending to statsd
	bufferMetrics = 10
)

type statsCli interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	TimeInMilliseconds(name string, value float64, tags []string, rate float64) error
}

func newStatsdClient(cfg Config) (statsCli, error) {
	port := cfg.Port
	if port == 0 {
		port = defaultDdPort
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, port)
	log.Log().WithField("addr", addr).Info("connecting to datadog agent")
	cli, err := statsd.NewBuffered(addr, bufferMetrics)
	if err != nil {
		return nil, err
	}
	return cli, nil
}

// DDMetrics records through a statsd client, prefixing every key with the namespace.
type DDMetrics struct {
	cli       statsCli
	namespace string
	ddTags    []string
}

func newDDMetrics(cli statsCli, namespace string, tags []string) *DDMetrics {
	return &DDMetrics{cli: cli, namespace: namespace, ddTags: tags}
}

func (dm *DDMetrics) key(k string) string {
	if dm.namespace == "" {
		return k
	}
	return dm.namespace + "." + k
}

func (dm *DDMetrics) tags(tags []string) []string {
	parsed := parseTag(tags)
	out := make([]string, 0, len(dm.ddTags)+len(parsed))
	return append(append(out, dm.ddTags...), parsed...)
}

// BumpAvg bumps the average for the given key.
func (dm *DDMetrics) BumpAvg(key string, val, sampleRate float64, tags ...string) {
	// datadog doesn't have a function to compute average only, gauge is the closest
	if err := dm.cli.Gauge(dm.key(key), val, dm.tags(tags), sampleRate); err != nil {
		log.Log().WithFields(log.Fields{"err": err, "key": key, "val": val, "func": "BumpAvg"}).Error("Bump fail")
	}
}

// BumpSum bumps the sum for the given key.
func (dm *DDMetrics) BumpSum(key string, val, sampleRate float64, tags ...string) {
	if err := dm.cli.Count(dm.key(key), int64(val), dm.tags(tags), sampleRate); err != nil {
		log.Log().WithFields(log.Fields{"err": err, "key": key, "val": val, "func": "BumpSum"}).Error("Bump fail")
	}
}

// BumpHistogram bumps the histogram for the given key.
func (dm *DDMetrics) BumpHistogram(key string, val, sampleRate float64, tags ...string) {
	if err := dm.cli.Histogram(dm.key(key), val, dm.tags(tags), sampleRate); err != nil {
		log.Log().WithFields(log.Fields{"err": err, "key": key, "val": val, "func": "BumpHistogram"}).Error("Bump fail")
	}
}

// BumpTime starts a timer, call End on the returned value to record it:
//
//	defer s.BumpTime("keeper.tick.time", 1).End()
func (dm *DDMetrics) BumpTime(key string, sampleRate float64, tags ...string) interface {
	End()
} {
	return &ddTimeTracker{
		cli:        dm.cli,
		start:      time.Now(),
		key:        dm.key(key),
		tags:       dm.tags(tags),
		sampleRate: sampleRate,
	}
}

func parseTag(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	if len(tags)%2 != 0 {
		log.Log().WithField("tags", tags).Panic("tag length needs to be multiple of 2")
	}
	arr := make([]string, len(tags)/2)
	for i := 0; i < len(tags); i += 2 {
		arr[i/2] = tags[i] + ":" + tags[i+1]
	}
	return arr
}

type ddTimeTracker struct {
	cli        statsCli
	start      time.Time
	key        string
	tags       []string
	sampleRate float64
}

func (dt *ddTimeTracker) End() {
	d := time.Since(dt.start)
	dur := float64(d) / float64(time.Millisecond)
	if err := dt.cli.TimeInMilliseconds(dt.key, dur, dt.tags, dt.sampleRate); err != nil {
		log.Log().WithFields(log.Fields{"err": err, "key": dt.key, "val": dur, "func": "BumpTime"}).Error("Bump fail")
	}
}
