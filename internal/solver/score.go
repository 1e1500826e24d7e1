package solver

// Assignment is a complete month assignment. Nights[day-1] is the night-shift
// doctor; Days[day-1] is the day-shift doctor or -1 on days without a
// day-shift slot.
type Assignment struct {
	Nights []int
	Days   []int
}

// Accounting is the reproducible per-doctor workload breakdown of a
// finalized assignment. Recomputing it for the same assignment always yields
// identical values; it feeds both the objective and the response payload.
type Accounting struct {
	Scores10     []int
	SatNights    []int
	SunholDuties []int
}

// Account tallies scores and rule counters from a complete assignment.
func Account(prob *Problem, asg *Assignment) Accounting {
	acct := Accounting{
		Scores10:     make([]int, prob.NumDoctors),
		SatNights:    make([]int, prob.NumDoctors),
		SunholDuties: make([]int, prob.NumDoctors),
	}
	for i, night := range asg.Nights {
		day := i + 1
		nightUnits, dayUnits := prob.DayUnits(day)
		acct.Scores10[night] += nightUnits
		// Saturday-night counters go by weekday alone, holiday or not;
		// only the score units defer to the holiday classification.
		if prob.Cal.IsSaturday(day) {
			acct.SatNights[night]++
		}
		if prob.Cal.IsHoliday(day) {
			acct.SunholDuties[night]++
			if ds := asg.Days[i]; ds >= 0 {
				acct.Scores10[ds] += dayUnits
				acct.SunholDuties[ds]++
			}
		}
	}
	return acct
}

// EvaluatePenalty computes the full weighted soft objective of a complete
// assignment from scratch. The search accumulates the same terms
// incrementally; this form backs the deterministic post-hoc comparison and
// the tests.
func EvaluatePenalty(prob *Problem, asg *Assignment) int64 {
	acct := Account(prob, asg)
	w := prob.Weights
	var penalty int64

	// Per-doctor duty day lists in ascending order.
	duties := make([][]int, prob.NumDoctors)
	for i, night := range asg.Nights {
		day := i + 1
		if ds := asg.Days[i]; ds >= 0 {
			// Day shift and night shift of the same date never collide,
			// so appending in day order keeps lists sorted.
			duties[ds] = append(duties[ds], day)
		}
		duties[night] = append(duties[night], day)
	}

	for d := 0; d < prob.NumDoctors; d++ {
		prev := prob.Doctors[d].LastPrevDuty
		for _, day := range duties[d] {
			switch day - prev {
			case minSpacing:
				penalty += int64(w.Gap5)
			case minSpacing + 1:
				penalty += int64(w.Gap6)
			}
			prev = day
		}
	}

	for i, night := range asg.Nights {
		day := i + 1
		if prob.ClinicEve(night, day) {
			penalty += int64(w.PreClinic)
		}
		if prob.Cal.IsSaturday(day) && prob.Doctors[night].SatPrev {
			penalty += int64(w.SatConsec)
		}
	}

	for d := 0; d < prob.NumDoctors; d++ {
		if extra := acct.SunholDuties[d] - 2; extra > 0 {
			penalty += int64(w.Sunhol3rd) * int64(extra)
		}
	}

	return penalty + terminalPenalty(prob, &acct)
}

// terminalPenalty covers the objective terms only computable on a complete
// assignment: fairness spreads, score variance and target deviation.
func terminalPenalty(prob *Problem, acct *Accounting) int64 {
	w := prob.Weights
	var penalty int64

	if w.MonthFairness != 0 {
		penalty += int64(w.MonthFairness) * int64(spread(acct.Scores10))
	}
	if w.PastSatGap != 0 {
		totals := make([]int, prob.NumDoctors)
		for d := range totals {
			totals[d] = acct.SatNights[d] + prob.Doctors[d].PastSat
		}
		penalty += int64(w.PastSatGap) * int64(spread(totals))
	}
	if w.PastSunholGap != 0 {
		totals := make([]int, prob.NumDoctors)
		for d := range totals {
			totals[d] = acct.SunholDuties[d] + prob.Doctors[d].PastSunhol
		}
		penalty += int64(w.PastSunholGap) * int64(spread(totals))
	}
	if w.ScoreBalance != 0 {
		// n*Σs² − (Σs)² is n² times the population variance, kept integral.
		var sum, sumSq int64
		for _, s := range acct.Scores10 {
			sum += int64(s)
			sumSq += int64(s) * int64(s)
		}
		penalty += int64(w.ScoreBalance) * (int64(prob.NumDoctors)*sumSq - sum*sum)
	}
	if w.Target != 0 {
		for d, s := range acct.Scores10 {
			if prob.Doctors[d].HasTarget {
				dev := s - prob.Doctors[d].Target10
				if dev < 0 {
					dev = -dev
				}
				penalty += int64(w.Target) * int64(dev)
			}
		}
	}

	return penalty
}

func spread(values []int) int {
	if len(values) == 0 {
		return 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo
}
