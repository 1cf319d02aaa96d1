package util

import "time"

// NowUTC is the default clock of the domain services; tests replace it.
func NowUTC() time.Time {
	return time.Now().UTC()
}
