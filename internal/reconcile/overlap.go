// Package reconcile implements the reconciliation engine: duplicate
// collapsing, conflict grouping, the resolution session and the sync
// pipeline that orchestrates them.
package reconcile

import "example.com/exerciselog/internal/domain"

// Overlaps reports whether the half-open intervals of a and b intersect.
// Strict inequalities: a record ending exactly when another begins does not
// overlap it. The relation is symmetric.
func Overlaps(a, b domain.ExerciseRecord) bool {
	aStart, aEnd := a.Interval()
	bStart, bEnd := b.Interval()
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
