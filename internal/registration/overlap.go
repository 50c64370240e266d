package registration

import "time"

// Overlaps reports whether two half-open event windows [s1,e1) and [s2,e2)
// intersect. A nil end collapses its window to a zero-width instant at the
// start: the instant clashes with any window that contains it, and two
// instants clash only when equal. Windows that merely touch (one ends
// exactly when the other starts) do not overlap.
func Overlaps(s1 time.Time, e1 *time.Time, s2 time.Time, e2 *time.Time) bool {
	zero1 := e1 == nil
	zero2 := e2 == nil

	switch {
	case zero1 && zero2:
		return s1.Equal(s2)
	case zero1:
		// point s1 inside [s2,e2)
		return !s1.Before(s2) && s1.Before(*e2)
	case zero2:
		// point s2 inside [s1,e1)
		return !s2.Before(s1) && s2.Before(*e1)
	default:
		return s1.Before(*e2) && s2.Before(*e1)
	}
}
