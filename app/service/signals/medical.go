package signals

import "math"

type MedicalUrgency struct {
	Score  float64 `json:"score"`
	Tier   string  `json:"tier"`
	Reason string  `json:"reason"`
}

var importanceWeight = map[Importance]float64{
	ImportanceCritical: 100,
	ImportanceHigh:     75,
	ImportanceMedium:   50,
	ImportanceLow:      25,
}

// AssessMedicalUrgency combines continuity-of-care importance with
// adherence. Engaged owners get a boost so they are not lost to churn.
func AssessMedicalUrgency(rec MedicalRecord) MedicalUrgency {
	base, ok := importanceWeight[rec.Importance]
	if !ok {
		return MedicalUrgency{
			Score:  NeutralMedicalUrgency,
			Tier:   urgencyTier(NeutralMedicalUrgency),
			Reason: "No medical history on file",
		}
	}

	modifier, reason := 1.0, "Support needed to maintain treatment adherence"
	switch {
	case rec.Adherence >= 85:
		modifier, reason = 1.2, "Highly engaged pet parent at risk of churn"
	case rec.Adherence >= 70:
		modifier, reason = 1.1, "Generally compliant customer worth retaining"
	}

	score := round1(math.Min(100, base*modifier))

	return MedicalUrgency{
		Score:  score,
		Tier:   urgencyTier(score),
		Reason: reason,
	}
}

func urgencyTier(score float64) string {
	switch {
	case score >= 90:
		return "MAXIMUM_RETENTION"
	case score >= 70:
		return "HIGH_RETENTION"
	case score >= 50:
		return "MODERATE_RETENTION"
	default:
		return "STANDARD_RETENTION"
	}
}
