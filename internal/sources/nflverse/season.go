package nflverse

import "time"

// Seasons returns the current and previous NFL season years for a given
// date. The data year rolls over in March, so January and February still
// belong to the prior calendar year's season.
func Seasons(now time.Time) (current, previous int) {
	current = now.Year()
	if now.Month() < time.March {
		current--
	}
	return current, current - 1
}
