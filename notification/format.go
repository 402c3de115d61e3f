package notification

import (
	"fmt"
	"time"
)

// Age renders how long ago ts was, in whole hours below a day and whole
// days after that.
func Age(ts, now time.Time) string {
	hours := int(now.Sub(ts) / time.Hour)
	switch {
	case hours < 1:
		return "Just now"
	case hours < 24:
		return plural(hours, "hour") + " ago"
	default:
		return plural(hours/24, "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
