package domain

import "time"

// RenderTimestamp formats a stored unix-nanosecond timestamp in the fixed
// textual interchange format used at the API boundary.
func RenderTimestamp(ns int64) string {
	return time.Unix(0, ns).UTC().Format(time.RFC3339Nano)
}
