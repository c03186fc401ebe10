package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies a cached read: an endpoint name followed by the values it
// depends on, e.g. Key{"doctor-appointments", doctorID, params}.
type Key []any

func encodePart(part any) string {
	b, err := json.Marshal(part)
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(part))
	}
	return string(b)
}

// String is the canonical form used as the cache and dedup identity.
// Maps encode with sorted keys, so equal params give equal strings.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, part := range k {
		parts[i] = encodePart(part)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// HasPrefix reports whether k starts with every element of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) == 0 || len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if encodePart(k[i]) != encodePart(prefix[i]) {
			return false
		}
	}
	return true
}
