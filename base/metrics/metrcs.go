/*Package metrics wraps datadog-go to faciliate metric recording
Following are naming convention of metric:
- Internal process time: *.time
- External latency: *.latency
- Error: *.err
- Warning: *.warn
*/
package metrics

// Service is what the keeper components record through.
type Service interface {
	BumpAvg(key string, val, sampleRate float64, tags ...string)
	BumpSum(key string, val, sampleRate float64, tags ...string)
	BumpHistogram(key string, val, sampleRate float64, tags ...string)
	BumpTime(key string, sampleRate float64, tags ...string) interface {
		End()
	}
}

// Config selects the backing client. A disabled config logs metrics at debug level.
type Config struct {
	Enabled   bool
	Host      string
	Port      int
	Namespace string
	Tags      []string
}

func New(cfg Config) (Service, error) {
	if !cfg.Enabled {
		return newDDMetrics(&LogClient{}, cfg.Namespace, cfg.Tags), nil
	}
	cli, err := newStatsdClient(cfg)
	if err != nil {
		return nil, err
	}
	return newDDMetrics(cli, cfg.Namespace, cfg.Tags), nil
}

// Noop returns a Service backed by the log client, handy for tests.
func Noop() Service {
	return newDDMetrics(&LogClient{}, "", nil)
}
