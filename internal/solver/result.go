package solver

import (
	"strconv"

	"github.com/noah-isme/oncall-roster-api/internal/dto"
)

// Format renders a solved assignment in the wire shape the roster front-end
// consumes: one entry per day, day_shift populated only on Sunday/holiday
// days, and per-doctor scores keyed by stringified index in score points
// (tenth-units divided back out).
func Format(prob *Problem, asg *Assignment, acct Accounting) *dto.OptimizeResponse {
	resp := &dto.OptimizeResponse{
		Schedule: make([]dto.ScheduleEntry, 0, prob.Cal.NumDays),
		Scores:   make(map[string]float64, prob.NumDoctors),
	}
	for day := 1; day <= prob.Cal.NumDays; day++ {
		entry := dto.ScheduleEntry{
			Day:       day,
			IsHoliday: prob.Cal.IsHoliday(day),
		}
		night := asg.Nights[day-1]
		entry.NightShift = &night
		if ds := asg.Days[day-1]; ds >= 0 {
			d := ds
			entry.DayShift = &d
		}
		resp.Schedule = append(resp.Schedule, entry)
	}
	for d := 0; d < prob.NumDoctors; d++ {
		resp.Scores[strconv.Itoa(d)] = float64(acct.Scores10[d]) / 10
	}
	return resp
}
