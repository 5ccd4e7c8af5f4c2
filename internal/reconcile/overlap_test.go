package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/exerciselog/internal/domain"
)

func rec(id, typ, start string, durationMin int, source domain.Source) domain.ExerciseRecord {
	startedAt, err := time.Parse("2006-01-02T15:04", start)
	if err != nil {
		panic(err)
	}
	return domain.ExerciseRecord{
		ID:          id,
		Type:        typ,
		StartedAt:   startedAt,
		DurationMin: durationMin,
		Source:      source,
	}
}

func TestOverlapsIsSymmetric(t *testing.T) {
	a := rec("a", domain.TypeRunning, "2025-10-05T09:00", 30, domain.SourceManual)
	b := rec("b", domain.TypeWalking, "2025-10-05T09:15", 30, domain.SourceGarmin)
	c := rec("c", domain.TypeYoga, "2025-10-05T11:00", 30, domain.SourceManual)

	require.True(t, Overlaps(a, b))
	require.True(t, Overlaps(b, a))
	require.False(t, Overlaps(a, c))
	require.False(t, Overlaps(c, a))
}

func TestAdjacentIntervalsDoNotOverlap(t *testing.T) {
	a := rec("a", domain.TypeRunning, "2025-10-05T09:00", 30, domain.SourceManual)
	b := rec("b", domain.TypeWalking, "2025-10-05T09:30", 30, domain.SourceManual)

	require.False(t, Overlaps(a, b))
	require.False(t, Overlaps(b, a))
}

func TestIdenticalStartsAlwaysOverlap(t *testing.T) {
	a := rec("a", domain.TypeRunning, "2025-10-05T09:00", 1, domain.SourceManual)
	b := rec("b", domain.TypeSwimming, "2025-10-05T09:00", 120, domain.SourceGarmin)

	require.True(t, Overlaps(a, b))
	require.True(t, Overlaps(b, a))
}

func TestContainedIntervalOverlaps(t *testing.T) {
	outer := rec("outer", domain.TypeHiking, "2025-10-05T08:00", 180, domain.SourceGarmin)
	inner := rec("inner", domain.TypeWalking, "2025-10-05T09:00", 15, domain.SourceManual)

	require.True(t, Overlaps(outer, inner))
	require.True(t, Overlaps(inner, outer))
}
