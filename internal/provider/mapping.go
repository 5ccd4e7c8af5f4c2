package provider

import (
	"strings"

	"example.com/exerciselog/internal/domain"
)

// Health Connect exercise session type codes for the activities this
// system models. Anything else maps to Other.
const (
	codeHiking       = 37
	codeRunning      = 56
	codeSwimmingPool = 73
	codeWalking      = 79
	codeYoga         = 83
)

var typeByCode = map[int]string{
	codeRunning:      domain.TypeRunning,
	codeWalking:      domain.TypeWalking,
	codeSwimmingPool: domain.TypeSwimming,
	codeYoga:         domain.TypeYoga,
	codeHiking:       domain.TypeHiking,
}

// MapExerciseType converts a provider type code to the fixed label set.
func MapExerciseType(code int) string {
	if label, ok := typeByCode[code]; ok {
		return label
	}
	return domain.TypeOther
}

// MapSource derives the source tag from the origin identifier of the app
// that wrote the session. Matching is case-insensitive on substrings.
func MapSource(origin string) domain.Source {
	lowered := strings.ToLower(origin)
	switch {
	case strings.Contains(lowered, "samsung"):
		return domain.SourceSamsungHealth
	case strings.Contains(lowered, "garmin"):
		return domain.SourceGarmin
	default:
		return domain.SourceProviderOther
	}
}
