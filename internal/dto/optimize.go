package dto

// OptimizeRequest is the solve payload posted by the roster front-end.
// Doctor-indexed maps arrive keyed by stringified integers; the constraint
// compiler converts and bounds-checks them against NumDoctors.
type OptimizeRequest struct {
	Year       int `json:"year" validate:"required"`
	Month      int `json:"month" validate:"required"`
	NumDoctors int `json:"num_doctors" validate:"required,min=1,max=64"`

	Holidays []int `json:"holidays"`

	// Specific unavailable day numbers per doctor.
	Unavailable map[string][]int `json:"unavailable"`
	// Recurring weekly exclusions per doctor, weekday 0=Mon..6=Sun.
	FixedUnavailableWeekdays map[string][]int `json:"fixed_unavailable_weekdays"`

	// Cross-month rest-gap carry-over.
	PrevMonthLastDay    *int             `json:"prev_month_last_day"`
	PrevMonthWorkedDays map[string][]int `json:"prev_month_worked_days"`

	// Month-wide score bounds; per-doctor overrides win when present.
	ScoreMin            *float64           `json:"score_min"`
	ScoreMax            *float64           `json:"score_max"`
	MinScoreByDoctor    map[string]float64 `json:"min_score_by_doctor"`
	MaxScoreByDoctor    map[string]float64 `json:"max_score_by_doctor"`
	TargetScoreByDoctor map[string]float64 `json:"target_score_by_doctor"`

	// Doctors who held a Saturday slot in the previous month.
	SatPrev map[string]bool `json:"sat_prev"`

	// Historic counters for the legacy gap-correction terms.
	PastSatCounts    []int              `json:"past_sat_counts"`
	PastSunholCounts []int              `json:"past_sunhol_counts"`
	PastTotalScores  map[string]float64 `json:"past_total_scores"`

	// Flat named-weight table; legacy and unified names coexist and are
	// summed independently. Unknown names are ignored.
	ObjectiveWeights map[string]int `json:"objective_weights"`
}

// ScheduleEntry is one calendar day of a solved or stored roster.
type ScheduleEntry struct {
	Day        int  `json:"day"`
	DayShift   *int `json:"day_shift"`
	NightShift *int `json:"night_shift"`
	IsHoliday  bool `json:"is_holiday"`
}

// OptimizeResponse is the legacy contract shape consumed by the front-end:
// a flat object, not the envelope.
type OptimizeResponse struct {
	Schedule []ScheduleEntry    `json:"schedule"`
	Scores   map[string]float64 `json:"scores"`
}
