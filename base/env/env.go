// Package env reads the deployment identity the orchestrator injects.
package env

import "os"

// metric tag name -> environment variable, in tag order
var metricEnv = []struct{ tag, name string }{
	{"env", "ENV_NAME"}, // e.g. testnet
	{"app", "APP_NAME"}, // e.g. keeper
	{"pod", "PODNAME"},  // e.g. keeper-5f7c9d8b7-x2kqp
}

// MetricTags returns env, app and pod as datadog tags, skipping unset ones.
func MetricTags() []string {
	tags := make([]string, 0, len(metricEnv))
	for _, e := range metricEnv {
		if v := os.Getenv(e.name); v != "" {
			tags = append(tags, e.tag+":"+v)
		}
	}
	return tags
}
