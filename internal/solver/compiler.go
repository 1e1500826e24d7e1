package solver

import (
	"fmt"
	"math"
	"strconv"

	"github.com/noah-isme/oncall-roster-api/internal/calendar"
	"github.com/noah-isme/oncall-roster-api/internal/dto"
	appErrors "github.com/noah-isme/oncall-roster-api/pkg/errors"
)

// Workload score units, fixed-point x10.
const (
	unitWeekdayNight = 10
	unitSatNight     = 15
	unitSunholDay    = 5
	unitSunholNight  = 10
)

// A duty on day D blocks any duty on D+1..D+restGap, so two duties of the
// same doctor are at least minSpacing days apart.
const (
	restGap    = 4
	minSpacing = restGap + 1
)

const (
	defaultScoreMin = 0.5
	defaultScoreMax = 4.5
)

// noPrevDuty marks a doctor with no previous-month tail work; far enough in
// the past that no day of the current month is blocked.
const noPrevDuty = -1000

// DoctorConstraints is the compiled per-doctor table the search consults.
type DoctorConstraints struct {
	Min10     int
	Max10     int
	Target10  int
	HasTarget bool

	SatPrev    bool
	PastSat    int
	PastSunhol int

	// LastPrevDuty is the doctor's latest previous-month duty expressed as
	// a day offset relative to this month (0 = last day of the previous
	// month); noPrevDuty when absent.
	LastPrevDuty int

	blocked   []bool // 1..NumDays; date and weekday unavailability
	clinicEve []bool // 1..NumDays; next day is a fixed-unavailable weekday
}

// Problem is a fully compiled solve instance.
type Problem struct {
	Cal        *calendar.Month
	NumDoctors int
	Doctors    []DoctorConstraints
	Weights    ObjectiveWeights

	// TotalScore10 is the score sum of any complete schedule; it is fixed
	// by the calendar alone, which makes the aggregate score-bounds
	// pre-check exact.
	TotalScore10 int
	TotalSlots   int
}

// Eligible reports static slot eligibility of a doctor on a day. The dynamic
// rest-gap state is checked by the search itself.
func (p *Problem) Eligible(d, day int) bool {
	return !p.Doctors[d].blocked[day]
}

// ClinicEve reports whether the day precedes one of the doctor's fixed
// outpatient-clinic weekdays.
func (p *Problem) ClinicEve(d, day int) bool {
	return p.Doctors[d].clinicEve[day]
}

// DayUnits returns the night-slot (and day-slot, when active) score units
// for a calendar day. Sunday-or-holiday classification wins over Saturday.
func (p *Problem) DayUnits(day int) (night int, dayShift int) {
	switch {
	case p.Cal.IsHoliday(day):
		return unitSunholNight, unitSunholDay
	case p.Cal.IsSaturday(day):
		return unitSatNight, 0
	default:
		return unitWeekdayNight, 0
	}
}

// Compile validates the raw request and flattens it into the per-doctor
// per-day tables the solver consumes. Validation failures abort before any
// search begins.
func Compile(req *dto.OptimizeRequest) (*Problem, error) {
	cal, err := calendar.New(req.Year, req.Month, req.Holidays)
	if err != nil {
		return nil, err
	}

	n := req.NumDoctors
	prob := &Problem{
		Cal:        cal,
		NumDoctors: n,
		Doctors:    make([]DoctorConstraints, n),
		Weights:    WeightsFromMap(req.ObjectiveWeights),
	}

	minDefault := defaultScoreMin
	maxDefault := defaultScoreMax
	if req.ScoreMin != nil {
		minDefault = *req.ScoreMin
	}
	if req.ScoreMax != nil {
		maxDefault = *req.ScoreMax
	}

	for d := 0; d < n; d++ {
		doc := &prob.Doctors[d]
		doc.Min10 = toTenths(minDefault)
		doc.Max10 = toTenths(maxDefault)
		doc.LastPrevDuty = noPrevDuty
		doc.blocked = make([]bool, cal.NumDays+1)
		doc.clinicEve = make([]bool, cal.NumDays+1)
		doc.PastSat = pastCount(req.PastSatCounts, d)
		doc.PastSunhol = pastCount(req.PastSunholCounts, d)
	}

	if err := applyDateUnavailability(prob, req.Unavailable); err != nil {
		return nil, err
	}
	if err := applyWeekdayUnavailability(prob, req.FixedUnavailableWeekdays); err != nil {
		return nil, err
	}
	if err := applyPrevMonthTail(prob, req.PrevMonthLastDay, req.PrevMonthWorkedDays); err != nil {
		return nil, err
	}
	if err := applyScoreOverrides(prob, req.MinScoreByDoctor, req.MaxScoreByDoctor, req.TargetScoreByDoctor); err != nil {
		return nil, err
	}
	for key, flag := range req.SatPrev {
		idx, err := doctorIndex(key, n)
		if err != nil {
			return nil, err
		}
		prob.Doctors[idx].SatPrev = flag
	}
	// past_total_scores carries no objective term; accepted for
	// compatibility, keys validated like every other doctor map.
	for key := range req.PastTotalScores {
		if _, err := doctorIndex(key, n); err != nil {
			return nil, err
		}
	}

	for _, doc := range prob.Doctors {
		if doc.Min10 > doc.Max10 {
			return nil, appErrors.Clone(appErrors.ErrMalformedConstraint, "min_score exceeds max_score")
		}
	}

	for day := 1; day <= cal.NumDays; day++ {
		night, dayShift := prob.DayUnits(day)
		prob.TotalScore10 += night + dayShift
		prob.TotalSlots++
		if cal.IsHoliday(day) {
			prob.TotalSlots++
		}
	}

	return prob, nil
}

func applyDateUnavailability(prob *Problem, raw map[string][]int) error {
	for key, days := range raw {
		idx, err := doctorIndex(key, prob.NumDoctors)
		if err != nil {
			return err
		}
		for _, day := range days {
			// Day numbers outside the month are skipped, matching the
			// historic backend behaviour.
			if day >= 1 && day <= prob.Cal.NumDays {
				prob.Doctors[idx].blocked[day] = true
			}
		}
	}
	return nil
}

func applyWeekdayUnavailability(prob *Problem, raw map[string][]int) error {
	for key, weekdays := range raw {
		idx, err := doctorIndex(key, prob.NumDoctors)
		if err != nil {
			return err
		}
		set := make(map[int]struct{}, len(weekdays))
		for _, wd := range weekdays {
			if wd < 0 || wd > 6 {
				return appErrors.Clone(appErrors.ErrMalformedConstraint, fmt.Sprintf("weekday %d is outside 0..6", wd))
			}
			set[wd] = struct{}{}
		}
		doc := &prob.Doctors[idx]
		for day := 1; day <= prob.Cal.NumDays; day++ {
			if _, ok := set[prob.Cal.Weekday(day)]; ok {
				doc.blocked[day] = true
			}
			if _, ok := set[weekdayAfter(prob.Cal, day)]; ok {
				doc.clinicEve[day] = true
			}
		}
	}
	return nil
}

func applyPrevMonthTail(prob *Problem, lastDay *int, raw map[string][]int) error {
	// Keys are validated even without cross-month context; a bad doctor
	// index is malformed input regardless of whether the rule applies.
	indexes := make(map[string]int, len(raw))
	for key := range raw {
		idx, err := doctorIndex(key, prob.NumDoctors)
		if err != nil {
			return err
		}
		indexes[key] = idx
	}
	if lastDay == nil {
		// No cross-month context supplied; the carry-over rule is skipped.
		return nil
	}
	last := *lastDay
	if last < 28 || last > 31 {
		return appErrors.Clone(appErrors.ErrInvalidCalendar, fmt.Sprintf("prev_month_last_day %d is not a month length", last))
	}
	for key, days := range raw {
		doc := &prob.Doctors[indexes[key]]
		for _, prevDay := range days {
			if prevDay < 1 || prevDay > last {
				continue
			}
			offset := prevDay - last // 0 for the last day, negative earlier
			if offset > doc.LastPrevDuty {
				doc.LastPrevDuty = offset
			}
		}
	}
	return nil
}

func applyScoreOverrides(prob *Problem, minBy, maxBy, targetBy map[string]float64) error {
	for key, value := range minBy {
		idx, err := doctorIndex(key, prob.NumDoctors)
		if err != nil {
			return err
		}
		prob.Doctors[idx].Min10 = toTenths(value)
	}
	for key, value := range maxBy {
		idx, err := doctorIndex(key, prob.NumDoctors)
		if err != nil {
			return err
		}
		prob.Doctors[idx].Max10 = toTenths(value)
	}
	for key, value := range targetBy {
		idx, err := doctorIndex(key, prob.NumDoctors)
		if err != nil {
			return err
		}
		prob.Doctors[idx].Target10 = toTenths(value)
		prob.Doctors[idx].HasTarget = true
	}
	return nil
}

// doctorIndex parses a stringified doctor-index key and bounds-checks it.
func doctorIndex(key string, numDoctors int) (int, error) {
	idx, err := strconv.Atoi(key)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrMalformedConstraint.Code, appErrors.ErrMalformedConstraint.Status,
			fmt.Sprintf("doctor index %q is not an integer", key))
	}
	if idx < 0 || idx >= numDoctors {
		return 0, appErrors.Clone(appErrors.ErrMalformedConstraint,
			fmt.Sprintf("doctor index %d is outside [0,%d)", idx, numDoctors))
	}
	return idx, nil
}

func weekdayAfter(cal *calendar.Month, day int) int {
	if day < cal.NumDays {
		return cal.Weekday(day + 1)
	}
	return (cal.Weekday(cal.NumDays) + 1) % 7
}

func toTenths(v float64) int {
	return int(math.Round(v * 10))
}

func pastCount(arr []int, d int) int {
	if d < len(arr) {
		return arr[d]
	}
	return 0
}
