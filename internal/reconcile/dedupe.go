package reconcile

import (
	"sort"
	"time"

	"example.com/exerciselog/internal/domain"
)

// DefaultDuplicateThresholdMin is the start-time tolerance, in minutes,
// within which two same-type, same-day records count as one event.
const DefaultDuplicateThresholdMin = 5

// DedupeResult carries the surviving records plus the ids that were absorbed
// into duplicate clusters and must disappear from the store.
type DedupeResult struct {
	Records     []domain.ExerciseRecord
	AbsorbedIDs []string
}

// Deduplicate collapses records that describe the same real-world event:
// identical type label, identical UTC calendar date, start times within
// thresholdMin minutes of the cluster seed. Clusters are anchored on the
// seed record, not chained. The survivor is the first member in input order
// whose source is not manual, falling back to the seed. Output is ordered by
// descending start time and is stable, so re-running on its own output
// returns it unchanged.
func Deduplicate(records []domain.ExerciseRecord, thresholdMin int) DedupeResult {
	survivors := make([]domain.ExerciseRecord, 0, len(records))
	absorbed := make([]string, 0)
	assigned := make(map[string]struct{}, len(records))

	for i, seed := range records {
		if _, done := assigned[seed.ID]; done {
			continue
		}

		cluster := []domain.ExerciseRecord{seed}
		for _, other := range records[i+1:] {
			if _, done := assigned[other.ID]; done {
				continue
			}
			if other.ID == seed.ID {
				continue
			}
			if sameEvent(seed, other, thresholdMin) {
				cluster = append(cluster, other)
			}
		}

		winner := pickSurvivor(cluster)
		survivors = append(survivors, winner)
		for _, member := range cluster {
			assigned[member.ID] = struct{}{}
			if member.ID != winner.ID {
				absorbed = append(absorbed, member.ID)
			}
		}
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].StartedAt.After(survivors[j].StartedAt)
	})

	return DedupeResult{Records: survivors, AbsorbedIDs: absorbed}
}

// sameEvent applies the duplicate judgement: same type, same calendar date,
// minute-of-day difference within the threshold. The date check keeps
// records straddling midnight apart even when their clock times are close.
func sameEvent(a, b domain.ExerciseRecord, thresholdMin int) bool {
	if a.Type != b.Type {
		return false
	}
	aDay := a.StartedAt.UTC()
	bDay := b.StartedAt.UTC()
	if aDay.Year() != bDay.Year() || aDay.YearDay() != bDay.YearDay() {
		return false
	}
	diff := minuteOfDay(aDay) - minuteOfDay(bDay)
	if diff < 0 {
		diff = -diff
	}
	return diff <= thresholdMin
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// pickSurvivor prefers synced data over manual entry: the first non-manual
// member in input order wins, otherwise the seed.
func pickSurvivor(cluster []domain.ExerciseRecord) domain.ExerciseRecord {
	for _, member := range cluster {
		if !member.Source.IsManual() {
			return member
		}
	}
	return cluster[0]
}
