package cache

import (
	"fmt"
	"strings"
)

// Key builds a provider-scoped key such as "fred:SOFR:90".
// The same key is used for the L1 map and the Redis copy.
func Key(provider string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(provider)
	for _, p := range parts {
		b.WriteByte(':')
		fmt.Fprint(&b, p)
	}
	return b.String()
}
