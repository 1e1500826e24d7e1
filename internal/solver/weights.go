package solver

// ObjectiveWeights is the flat named-weight table for the soft objective.
// The payload mixes the legacy triplet with the unified seven-term set;
// every non-zero term contributes independently to the minimized sum.
type ObjectiveWeights struct {
	Gap5         int
	PreClinic    int
	SatConsec    int
	Sunhol3rd    int
	Gap6         int
	ScoreBalance int
	Target       int

	MonthFairness int
	PastSatGap    int
	PastSunholGap int
}

// DefaultWeights mirrors the backend defaults applied when the payload
// omits the objective_weights object entirely.
func DefaultWeights() ObjectiveWeights {
	return ObjectiveWeights{MonthFairness: 100, PastSatGap: 10, PastSunholGap: 5}
}

// WeightsFromMap builds the weight table from the raw payload map. A nil map
// gets the defaults; absent fields default to 0; unknown names are ignored.
func WeightsFromMap(raw map[string]int) ObjectiveWeights {
	if raw == nil {
		return DefaultWeights()
	}
	return ObjectiveWeights{
		Gap5:          raw["gap5"],
		PreClinic:     raw["pre_clinic"],
		SatConsec:     raw["sat_consec"],
		Sunhol3rd:     raw["sunhol_3rd"],
		Gap6:          raw["gap6"],
		ScoreBalance:  raw["score_balance"],
		Target:        raw["target"],
		MonthFairness: raw["month_fairness"],
		PastSatGap:    raw["past_sat_gap"],
		PastSunholGap: raw["past_sunhol_gap"],
	}
}
