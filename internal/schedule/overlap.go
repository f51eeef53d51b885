package schedule

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap, so a job
// ending at 11:00 never conflicts with one starting at 11:00.
//
// Every overlap decision in the codebase goes through this function; the
// availability checker is its only caller on the conflict path.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
