package utils

import (
	"fmt"
	"time"
)

// RelativeTime formats the time elapsed between then and now using the
// thresholds shown in viewer lists and item headers.
func RelativeTime(then, now time.Time) string {
	age := now.Sub(then)
	switch {
	case age < time.Minute:
		return "Just now"
	case age < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(age/time.Minute))
	case age < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(age/time.Hour))
	default:
		return fmt.Sprintf("%d days ago", int(age/(24*time.Hour)))
	}
}
