package scheduler

import (
	"fmt"
	"time"
)

// groupTitle derives a deterministic title from the account's ordinal
// position in the pass, the group sequence number, and the pass date.
// Unique within a day for ordinals 00-99 and sequence 000-999.
func groupTitle(ordinal, number int, now time.Time) string {
	return fmt.Sprintf("ACC%02d • G%03d • %s", ordinal, number, now.Format("2006-01-02"))
}

// datetimeMessages produces the fixed ten-message seed sequence for one
// timestamp. Pure: the same timestamp always yields the same strings.
func datetimeMessages(t time.Time) []string {
	t = t.UTC()
	return []string{
		fmt.Sprintf("Year: %d", t.Year()),
		fmt.Sprintf("Month: %d (%s)", int(t.Month()), t.Month()),
		fmt.Sprintf("Day: %d", t.Day()),
		fmt.Sprintf("Weekday: %s", t.Weekday()),
		fmt.Sprintf("Hour: %d", t.Hour()),
		fmt.Sprintf("Minute: %d", t.Minute()),
		fmt.Sprintf("Second: %d", t.Second()),
		"ISO: " + t.Format(time.RFC3339),
		fmt.Sprintf("Unix: %d", t.Unix()),
		"Summary: " + t.Format("2006-01-02 15:04:05") + " UTC",
	}
}
