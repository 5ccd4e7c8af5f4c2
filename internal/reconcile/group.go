package reconcile

import "example.com/exerciselog/internal/domain"

// ConflictGroup is a maximal set of distinct records whose intervals overlap
// pairwise-transitively. Members appear in BFS discovery order.
type ConflictGroup struct {
	Records []domain.ExerciseRecord
}

// IDs returns the member ids in discovery order.
func (g ConflictGroup) IDs() []string {
	ids := make([]string, 0, len(g.Records))
	for _, r := range g.Records {
		ids = append(ids, r.ID)
	}
	return ids
}

// Contains reports whether id is a member of the group.
func (g ConflictGroup) Contains(id string) bool {
	for _, r := range g.Records {
		if r.ID == id {
			return true
		}
	}
	return false
}

// Group partitions records into connected components under the overlap
// relation. Records are scanned in the given order; each unassigned record
// seeds a breadth-first expansion that pulls in every unassigned record
// overlapping any member already in the growing group. Only components with
// two or more members are emitted, in seed-scan order.
func Group(records []domain.ExerciseRecord) []ConflictGroup {
	groups := make([]ConflictGroup, 0)
	assigned := make(map[string]struct{}, len(records))

	for _, seed := range records {
		if _, done := assigned[seed.ID]; done {
			continue
		}

		members := []domain.ExerciseRecord{seed}
		memberIDs := map[string]struct{}{seed.ID: {}}
		frontier := []domain.ExerciseRecord{seed}

		for len(frontier) > 0 {
			current := frontier[0]
			frontier = frontier[1:]

			for _, other := range records {
				if other.ID == current.ID {
					continue
				}
				if _, in := memberIDs[other.ID]; in {
					continue
				}
				if _, done := assigned[other.ID]; done {
					continue
				}
				if Overlaps(current, other) {
					members = append(members, other)
					memberIDs[other.ID] = struct{}{}
					frontier = append(frontier, other)
				}
			}
		}

		for id := range memberIDs {
			assigned[id] = struct{}{}
		}
		if len(members) > 1 {
			groups = append(groups, ConflictGroup{Records: members})
		}
	}

	return groups
}
