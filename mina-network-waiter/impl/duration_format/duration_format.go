package duration_format

import (
	"fmt"
	"strings"
)

const (
	secondsPerHour   = 3600
	secondsPerMinute = 60

	componentSeparator = ", "
)

// Renders a whole number of seconds as e.g. "2 hours, 3 minutes, 5 seconds"
// Zero-valued components are left out, so 0 renders as the empty string
func SecondsToHumanReadable(totalSeconds uint64) string {
	hours := totalSeconds / secondsPerHour
	minutes := (totalSeconds % secondsPerHour) / secondsPerMinute
	seconds := totalSeconds % secondsPerMinute

	components := []string{}
	if hours > 0 {
		components = append(components, pluralize(hours, "hour"))
	}
	if minutes > 0 {
		components = append(components, pluralize(minutes, "minute"))
	}
	if seconds > 0 {
		components = append(components, pluralize(seconds, "second"))
	}
	return strings.Join(components, componentSeparator)
}

func pluralize(count uint64, unit string) string {
	if count == 1 {
		return fmt.Sprintf("%v %v", count, unit)
	}
	return fmt.Sprintf("%v %vs", count, unit)
}
