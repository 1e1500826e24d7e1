package solver

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/oncall-roster-api/internal/dto"
)

func testOptions() Options {
	return Options{TimeBudget: 30 * time.Second, Workers: 1, NodeLimit: 150_000}
}

func solveRequest(t *testing.T, req *dto.OptimizeRequest, opts Options) (*Problem, *Outcome) {
	t.Helper()
	prob, err := Compile(req)
	require.NoError(t, err)
	out, err := Solve(context.Background(), prob, opts)
	require.NoError(t, err)
	return prob, out
}

// requireHardConstraints asserts the properties every feasible schedule must
// hold regardless of the soft objective.
func requireHardConstraints(t *testing.T, prob *Problem, out *Outcome) {
	t.Helper()
	require.True(t, out.Feasible, "expected a feasible schedule, got: %s", out.Reason)
	require.NotNil(t, out.Assignment)

	asg := out.Assignment
	numDays := prob.Cal.NumDays
	require.Len(t, asg.Nights, numDays)
	require.Len(t, asg.Days, numDays)

	duties := make([][]int, prob.NumDoctors)
	for day := 1; day <= numDays; day++ {
		night := asg.Nights[day-1]
		require.GreaterOrEqual(t, night, 0)
		require.Less(t, night, prob.NumDoctors)
		duties[night] = append(duties[night], day)

		ds := asg.Days[day-1]
		if prob.Cal.IsHoliday(day) {
			require.GreaterOrEqual(t, ds, 0, "day %d needs a day shift", day)
			require.NotEqual(t, night, ds, "day %d assigns both shifts to doctor %d", day, night)
			duties[ds] = append(duties[ds], day)
		} else {
			require.Equal(t, -1, ds, "day %d must not have a day shift", day)
		}
	}

	acct := Account(prob, asg)
	for d := 0; d < prob.NumDoctors; d++ {
		for i := 1; i < len(duties[d]); i++ {
			gap := duties[d][i] - duties[d][i-1]
			assert.GreaterOrEqual(t, gap, minSpacing,
				"doctor %d works day %d only %d days after day %d", d, duties[d][i], gap, duties[d][i-1])
		}
		assert.LessOrEqual(t, acct.SatNights[d], 1, "doctor %d exceeds the Saturday quota", d)
		assert.GreaterOrEqual(t, acct.Scores10[d], prob.Doctors[d].Min10, "doctor %d below min score", d)
		assert.LessOrEqual(t, acct.Scores10[d], prob.Doctors[d].Max10, "doctor %d above max score", d)
	}
}

func TestSolveProducesValidSchedule(t *testing.T) {
	req := &dto.OptimizeRequest{Year: 2024, Month: 4, NumDoctors: 8}
	prob, out := solveRequest(t, req, testOptions())
	requireHardConstraints(t, prob, out)

	// The month total is fixed by the calendar, so per-doctor scores must
	// add up to it no matter how slots are distributed.
	acct := Account(prob, out.Assignment)
	sum := 0
	for _, s := range acct.Scores10 {
		sum += s
	}
	assert.Equal(t, prob.TotalScore10, sum)
}

func TestSolveTwoDoctorsInfeasible(t *testing.T) {
	req := &dto.OptimizeRequest{Year: 2024, Month: 4, NumDoctors: 2}
	_, out := solveRequest(t, req, testOptions())

	require.False(t, out.Feasible)
	assert.True(t, out.Proven)
	assert.False(t, out.Timeout)
	assert.Contains(t, out.Reason, "rest gap")
	assert.Contains(t, out.Reason, "doctor")
}

func TestSolveRespectsDateUnavailability(t *testing.T) {
	req := &dto.OptimizeRequest{
		Year: 2024, Month: 4, NumDoctors: 8,
		Unavailable: map[string][]int{"3": {10, 11, 12}},
	}
	prob, out := solveRequest(t, req, testOptions())
	requireHardConstraints(t, prob, out)

	for _, day := range []int{10, 11, 12} {
		assert.NotEqual(t, 3, out.Assignment.Nights[day-1])
	}
}

func TestSolveRespectsWeekdayUnavailability(t *testing.T) {
	// April 2024 Mondays: 1, 8, 15, 22, 29.
	req := &dto.OptimizeRequest{
		Year: 2024, Month: 4, NumDoctors: 8,
		FixedUnavailableWeekdays: map[string][]int{"0": {0}},
	}
	prob, out := solveRequest(t, req, testOptions())
	requireHardConstraints(t, prob, out)

	for _, monday := range []int{1, 8, 15, 22, 29} {
		assert.NotEqual(t, 0, out.Assignment.Nights[monday-1],
			"doctor 0 assigned on Monday %d", monday)
	}
}

func TestSolveHolidayActivatesDayShift(t *testing.T) {
	// Monday April 29 declared a holiday gets a staffed day shift and the
	// cheaper holiday scoring instead of the weekday rate.
	req := &dto.OptimizeRequest{
		Year: 2024, Month: 4, NumDoctors: 8,
		Holidays: []int{29},
	}
	prob, out := solveRequest(t, req, testOptions())
	requireHardConstraints(t, prob, out)

	require.True(t, prob.Cal.IsHoliday(29))
	assert.GreaterOrEqual(t, out.Assignment.Days[28], 0)
	night, dayShift := prob.DayUnits(29)
	assert.Equal(t, 10, night)
	assert.Equal(t, 5, dayShift)
}

func TestSolvePrevMonthTailBlocksEarlyDays(t *testing.T) {
	// Doctor 2 worked March 31; the rest gap keeps them off April 1-4.
	req := &dto.OptimizeRequest{
		Year: 2024, Month: 4, NumDoctors: 8,
		PrevMonthLastDay:    intPtr(31),
		PrevMonthWorkedDays: map[string][]int{"2": {31}},
	}
	prob, out := solveRequest(t, req, testOptions())
	requireHardConstraints(t, prob, out)

	for day := 1; day <= 4; day++ {
		assert.NotEqual(t, 2, out.Assignment.Nights[day-1],
			"doctor 2 assigned on day %d inside the carried-over rest gap", day)
	}
}

func TestSolveDeterministic(t *testing.T) {
	req := &dto.OptimizeRequest{
		Year: 2024, Month: 4, NumDoctors: 8,
		Holidays: []int{29},
	}
	opts := Options{TimeBudget: 30 * time.Second, Workers: 1, NodeLimit: 150_000}

	prob1, out1 := solveRequest(t, req, opts)
	prob2, out2 := solveRequest(t, req, opts)
	requireHardConstraints(t, prob1, out1)

	first, err := json.Marshal(Format(prob1, out1.Assignment, out1.Accounting))
	require.NoError(t, err)
	second, err := json.Marshal(Format(prob2, out2.Assignment, out2.Accounting))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.Equal(t, out1.Penalty, out2.Penalty)
	assert.Equal(t, out1.Nodes, out2.Nodes)
}

func TestSolveWorkerCountInvariant(t *testing.T) {
	// A near-forced instance the search exhausts well inside the node
	// budget: doctors 0-7 rotate nights every 8 days and doctors 8-11 are
	// each free on a single Sunday, so branching happens only at the four
	// Sunday slot pairs. A completed search must return the same schedule
	// no matter how the root is split across workers.
	unavailable := make(map[string][]int, 12)
	for d := 0; d < 12; d++ {
		allowed := make(map[int]bool, 4)
		if d < 8 {
			for day := d + 1; day <= 30; day += 8 {
				allowed[day] = true
			}
		} else {
			allowed[7*(d-7)] = true
		}
		var blocked []int
		for day := 1; day <= 30; day++ {
			if !allowed[day] {
				blocked = append(blocked, day)
			}
		}
		unavailable[strconv.Itoa(d)] = blocked
	}
	req := &dto.OptimizeRequest{
		Year: 2024, Month: 4, NumDoctors: 12,
		Unavailable: unavailable,
	}

	prob1, out1 := solveRequest(t, req, Options{TimeBudget: 30 * time.Second, Workers: 1, NodeLimit: 150_000})
	requireHardConstraints(t, prob1, out1)
	prob4, out4 := solveRequest(t, req, Options{TimeBudget: 30 * time.Second, Workers: 4, NodeLimit: 150_000})
	requireHardConstraints(t, prob4, out4)

	require.True(t, out1.Proven)
	require.True(t, out4.Proven)
	assert.Equal(t, out1.Penalty, out4.Penalty)
	assert.Equal(t, out1.Assignment.Nights, out4.Assignment.Nights)
	assert.Equal(t, out1.Assignment.Days, out4.Assignment.Days)

	first, err := json.Marshal(Format(prob1, out1.Assignment, out1.Accounting))
	require.NoError(t, err)
	second, err := json.Marshal(Format(prob4, out4.Assignment, out4.Accounting))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestSolveSaturdayQuota(t *testing.T) {
	req := &dto.OptimizeRequest{Year: 2024, Month: 4, NumDoctors: 8}
	prob, out := solveRequest(t, req, testOptions())
	requireHardConstraints(t, prob, out)

	acct := Account(prob, out.Assignment)
	totalSat := 0
	for d := 0; d < 8; d++ {
		assert.LessOrEqual(t, acct.SatNights[d], 1, "doctor %d Saturday count", d)
		totalSat += acct.SatNights[d]
	}
	// Four Saturdays in April 2024, each staffed by a different doctor.
	assert.Equal(t, 4, totalSat)
}

func TestHolidaySaturdayNightCountsAsSaturday(t *testing.T) {
	// May 4 2024 is a Saturday declared a holiday: it takes the holiday
	// score units but still counts as a Saturday night for the quota and
	// the consecutive-Saturday term.
	req := &dto.OptimizeRequest{
		Year: 2024, Month: 5, NumDoctors: 8,
		Holidays:         []int{4},
		SatPrev:          map[string]bool{"0": true},
		ObjectiveWeights: map[string]int{"sat_consec": 7},
	}
	prob, err := Compile(req)
	require.NoError(t, err)

	night, dayShift := prob.DayUnits(4)
	assert.Equal(t, 10, night)
	assert.Equal(t, 5, dayShift)

	asg := &Assignment{Nights: make([]int, 31), Days: make([]int, 31)}
	for day := 1; day <= 31; day++ {
		asg.Nights[day-1] = (day - 1) % 8
		asg.Days[day-1] = -1
	}
	// Doctor 0 on the holiday Saturday night and on plain Saturday 25.
	asg.Nights[3] = 0
	asg.Nights[24] = 0

	acct := Account(prob, asg)
	assert.Equal(t, 2, acct.SatNights[0])
	assert.Equal(t, int64(14), EvaluatePenalty(prob, asg))
}

func TestSolveSaturdayQuotaSpansHolidaySaturday(t *testing.T) {
	// Only doctors 0 and 1 are around on the two Saturdays 4 and 25, and
	// doctor 1's score cap rules them out of either night. Doctor 0
	// cannot take both Saturday nights, holiday or not, so no schedule
	// exists.
	unavailable := make(map[string][]int, 8)
	for d := 2; d <= 9; d++ {
		unavailable[strconv.Itoa(d)] = []int{4, 25}
	}
	req := &dto.OptimizeRequest{
		Year: 2024, Month: 5, NumDoctors: 10,
		Holidays:         []int{4},
		Unavailable:      unavailable,
		MaxScoreByDoctor: map[string]float64{"1": 0.5},
	}
	_, out := solveRequest(t, req, testOptions())

	require.False(t, out.Feasible)
	assert.Nil(t, out.Assignment)
}

func TestSolveScoreBoundsTooTight(t *testing.T) {
	req := &dto.OptimizeRequest{
		Year: 2024, Month: 4, NumDoctors: 8,
		ScoreMax: floatPtr(3.0),
	}
	// 8 doctors capped at 3.0 can absorb at most 24.0 of the month's
	// 34.0 total.
	_, out := solveRequest(t, req, testOptions())

	require.False(t, out.Feasible)
	assert.True(t, out.Proven)
	assert.Contains(t, out.Reason, "score bounds")
}

func TestSolveInsufficientEligibleDoctorsOnDay(t *testing.T) {
	req := &dto.OptimizeRequest{
		Year: 2024, Month: 4, NumDoctors: 3,
		Unavailable: map[string][]int{
			"0": {15},
			"1": {15},
			"2": {15},
		},
	}
	_, out := solveRequest(t, req, testOptions())

	require.False(t, out.Feasible)
	assert.True(t, out.Proven)
	assert.Contains(t, out.Reason, "day 15")
}

func TestSolveTimeoutWithoutIncumbent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prob, err := Compile(&dto.OptimizeRequest{Year: 2024, Month: 4, NumDoctors: 8})
	require.NoError(t, err)
	out, err := Solve(ctx, prob, Options{Workers: 1, NodeLimit: defaultNodeLimit})
	require.NoError(t, err)

	require.False(t, out.Feasible)
	assert.True(t, out.Timeout)
	assert.False(t, out.Proven)
	assert.Contains(t, out.Reason, "timeout")
}

func TestEvaluatePenaltyMatchesIncrementalSearch(t *testing.T) {
	req := &dto.OptimizeRequest{
		Year: 2024, Month: 4, NumDoctors: 8,
		ObjectiveWeights: map[string]int{
			"gap5":           3,
			"gap6":           1,
			"month_fairness": 100,
			"score_balance":  2,
		},
	}
	prob, out := solveRequest(t, req, testOptions())
	requireHardConstraints(t, prob, out)

	assert.Equal(t, out.Penalty, EvaluatePenalty(prob, out.Assignment))
}

func TestFormatLegacyShape(t *testing.T) {
	req := &dto.OptimizeRequest{Year: 2024, Month: 4, NumDoctors: 8}
	prob, out := solveRequest(t, req, testOptions())
	requireHardConstraints(t, prob, out)

	resp := Format(prob, out.Assignment, out.Accounting)
	require.Len(t, resp.Schedule, 30)
	require.Len(t, resp.Scores, 8)

	for _, entry := range resp.Schedule {
		require.NotNil(t, entry.NightShift)
		if entry.IsHoliday {
			assert.NotNil(t, entry.DayShift)
		} else {
			assert.Nil(t, entry.DayShift)
		}
	}
	total := 0.0
	for _, s := range resp.Scores {
		total += s
	}
	assert.InDelta(t, 34.0, total, 1e-9)
}
