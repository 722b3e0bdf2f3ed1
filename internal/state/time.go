package state

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to control timestamps in assertions.
var timeNow = time.Now

func nowRFC3339() string {
	return timeNow().UTC().Format(time.RFC3339Nano)
}
