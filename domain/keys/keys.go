// Package keys names the shared cache and redis keys of the keeper.
package keys

import "strings"

const sep = ":"

// Key prefixes. GetPrefix recovers them for metric tags.
const (
	PfxHealthCheck = "healthcheck"
	PfxSeenLog     = "seenLog"
	PfxTokenInfo   = "tokenInfo"
)

// RedisKey joins components with ":", e.g. seenLog:0xabc:3.
func RedisKey(components ...string) string {
	return strings.Join(components, sep)
}

// GetPrefix returns the leading component of key, or "" when key has no separator.
// Token keys keep their chain component so per chain hit rates can be told apart.
func GetPrefix(key string) string {
	parts := strings.SplitN(key, sep, 3)
	switch {
	case len(parts) < 2:
		return ""
	case parts[0] == PfxTokenInfo && len(parts) == 3:
		return parts[0] + sep + parts[1]
	default:
		return parts[0]
	}
}
