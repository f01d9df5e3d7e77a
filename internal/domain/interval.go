package domain

import "time"

// Overlaps reports whether the half-open ranges [aStart,aEnd) and
// [bStart,bEnd) intersect. Adjacent ranges sharing a boundary do not:
// [a,b) and [b,c) leave day b free to be both a checkout and a check-in.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ClampStart raises the range's start to from when it begins earlier.
// Calendar feeds use this so ranges never reach back before the horizon.
func (r OccupiedRange) ClampStart(from time.Time) OccupiedRange {
	if r.Start.Before(from) {
		r.Start = from
	}
	return r
}
