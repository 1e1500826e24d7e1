package solver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	appErrors "github.com/noah-isme/oncall-roster-api/pkg/errors"
)

// Options tunes a single solve call.
type Options struct {
	// TimeBudget bounds wall-clock search time; <=0 relies on ctx alone.
	TimeBudget time.Duration
	// Workers splits the root branching across parallel searches. A search
	// that runs to completion returns the same solution for any worker
	// count; a truncated search returns a best-effort incumbent that is
	// reproducible only for a fixed worker count, and is flagged through
	// Outcome.Timeout.
	Workers int
	// NodeLimit caps explored nodes deterministically, divided across
	// workers. <=0 applies a default.
	NodeLimit int64
}

const defaultNodeLimit = 5_000_000

// Outcome is the first-class solve result. Infeasibility is an expected
// outcome, not an error; Proven distinguishes an exhausted search from a
// truncated one. When Timeout is set the assignment, if any, is the best
// incumbent found before the budget ran out rather than a proven optimum.
type Outcome struct {
	Feasible   bool
	Proven     bool
	Timeout    bool
	Reason     string
	Assignment *Assignment
	Accounting Accounting
	Penalty    int64
	Nodes      int64
}

// Solve runs the branch-and-bound search over the compiled problem. The
// returned error is reserved for unexpected internal faults; every expected
// condition, including proven infeasibility and budget exhaustion, is
// reported through the Outcome.
func Solve(ctx context.Context, prob *Problem, opts Options) (out *Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = appErrors.Clone(appErrors.ErrSolverFault, fmt.Sprintf("panic during search: %v", r))
		}
	}()

	if diag := diagnose(prob); diag != nil {
		return diag, nil
	}

	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.NodeLimit <= 0 {
		opts.NodeLimit = defaultNodeLimit
	}
	if opts.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeBudget)
		defer cancel()
	}

	slots := buildSlots(prob)

	// Root candidates on the pristine state; identical for every worker so
	// sharding is reproducible.
	rootProbe := newSearch(ctx, prob, slots, nil, 0)
	rootCands := rootProbe.feasibleChoices(0)

	workers := opts.Workers
	if workers > len(rootCands) {
		workers = len(rootCands)
	}
	if workers == 0 {
		workers = 1
	}

	shared := &sharedBound{}
	shared.best.Store(int64(1) << 62)

	results := make([]*searchResult, workers)
	panics := make(chan error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		shard := make([]int, 0, (len(rootCands)+workers-1)/workers)
		for i := w; i < len(rootCands); i += workers {
			shard = append(shard, rootCands[i])
		}
		budget := opts.NodeLimit / int64(workers)
		if w == 0 {
			budget += opts.NodeLimit % int64(workers)
		}

		wg.Add(1)
		go func(w int, shard []int, budget int64) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panics <- appErrors.Clone(appErrors.ErrSolverFault, fmt.Sprintf("panic during search: %v", r))
				}
			}()
			s := newSearch(ctx, prob, slots, shared, budget)
			results[w] = s.run(shard)
		}(w, shard, budget)
	}
	wg.Wait()
	close(panics)
	if perr, ok := <-panics; ok {
		return nil, perr
	}

	return mergeResults(prob, slots, results), nil
}

// diagnose runs the analytic feasibility pre-checks so common impossible
// instances get a precise reason without burning search budget.
func diagnose(prob *Problem) *Outcome {
	n := prob.Cal.NumDays

	for day := 1; day <= n; day++ {
		need := 1
		if prob.Cal.IsHoliday(day) {
			need = 2
		}
		eligible := 0
		for d := 0; d < prob.NumDoctors; d++ {
			if prob.Eligible(d, day) && day-prob.Doctors[d].LastPrevDuty >= minSpacing {
				eligible++
			}
		}
		if eligible < need {
			return infeasible(fmt.Sprintf("insufficient eligible doctors on day %d: need %d, have %d", day, need, eligible))
		}
	}

	perDoctorMax := (n-1)/minSpacing + 1
	if prob.NumDoctors*perDoctorMax < prob.TotalSlots {
		return infeasible(fmt.Sprintf(
			"insufficient doctor count for the 4-day rest gap: %d doctors cover at most %d duties but the month has %d slots",
			prob.NumDoctors, prob.NumDoctors*perDoctorMax, prob.TotalSlots))
	}

	sumMin, sumMax := 0, 0
	for d := 0; d < prob.NumDoctors; d++ {
		sumMin += prob.Doctors[d].Min10
		sumMax += prob.Doctors[d].Max10
		if prob.Doctors[d].Min10 > unitSatNight*perDoctorMax {
			return infeasible("score bounds too tight for doctor count")
		}
	}
	if sumMin > prob.TotalScore10 || sumMax < prob.TotalScore10 {
		return infeasible("score bounds too tight for doctor count")
	}

	return nil
}

func infeasible(reason string) *Outcome {
	return &Outcome{Feasible: false, Proven: true, Reason: reason}
}

// slotRef is one decision point. Per day the night slot precedes the
// day-shift slot; that fixed order defines the lexicographic tie-break over
// complete assignments.
type slotRef struct {
	day   int
	night bool
}

func buildSlots(prob *Problem) []slotRef {
	slots := make([]slotRef, 0, prob.TotalSlots)
	for day := 1; day <= prob.Cal.NumDays; day++ {
		slots = append(slots, slotRef{day: day, night: true})
		if prob.Cal.IsHoliday(day) {
			slots = append(slots, slotRef{day: day, night: false})
		}
	}
	return slots
}

type sharedBound struct {
	best atomic.Int64
}

func (b *sharedBound) load() int64 { return b.best.Load() }

func (b *sharedBound) lower(v int64) {
	for {
		cur := b.best.Load()
		if v >= cur || b.best.CompareAndSwap(cur, v) {
			return
		}
	}
}

type searchResult struct {
	found     bool
	assign    []int
	penalty   int64
	truncated bool
	nodes     int64
}

type search struct {
	ctx   context.Context
	prob  *Problem
	slots []slotRef

	assign      []int
	lastDuty    []int
	score10     []int
	satNights   []int
	sunholCount []int
	stepPenalty int64

	shared    *sharedBound
	nodeLimit int64
	nodes     int64
	truncated bool

	found       bool
	bestAssign  []int
	bestPenalty int64
}

func newSearch(ctx context.Context, prob *Problem, slots []slotRef, shared *sharedBound, nodeLimit int64) *search {
	s := &search{
		ctx:         ctx,
		prob:        prob,
		slots:       slots,
		assign:      make([]int, len(slots)),
		lastDuty:    make([]int, prob.NumDoctors),
		score10:     make([]int, prob.NumDoctors),
		satNights:   make([]int, prob.NumDoctors),
		sunholCount: make([]int, prob.NumDoctors),
		shared:      shared,
		nodeLimit:   nodeLimit,
	}
	for i := range s.assign {
		s.assign[i] = -1
	}
	for d := 0; d < prob.NumDoctors; d++ {
		s.lastDuty[d] = prob.Doctors[d].LastPrevDuty
	}
	return s
}

type frame struct {
	cands    []int
	next     int
	chosen   int
	prevLast int
	delta    int64
}

// run explores the worker's shard of the root branching with an explicit
// stack of partial assignments. Candidates are tried lowest current score
// first, which steers the first descent toward balanced schedules and
// yields an incumbent early; ties between equal-penalty schedules are
// settled by the lexicographic comparator at the leaves.
func (s *search) run(rootCands []int) *searchResult {
	stack := make([]frame, 0, len(s.slots))
	stack = append(stack, frame{cands: rootCands, chosen: -1})

	for len(stack) > 0 {
		if s.stopped() {
			s.truncated = true
			break
		}
		top := &stack[len(stack)-1]
		slotIdx := len(stack) - 1

		if top.chosen >= 0 {
			s.undo(slotIdx, top.chosen, top.prevLast, top.delta)
			top.chosen = -1
		}

		advanced := false
		for top.next < len(top.cands) {
			d := top.cands[top.next]
			top.next++
			prevLast, delta, ok := s.apply(slotIdx, d)
			if !ok {
				continue
			}
			s.nodes++
			top.chosen = d
			top.prevLast = prevLast
			top.delta = delta

			if slotIdx == len(s.slots)-1 {
				s.onLeaf()
				// The loop undoes the leaf choice on the next pass.
			} else {
				stack = append(stack, frame{cands: s.feasibleChoices(slotIdx + 1), chosen: -1})
			}
			advanced = true
			break
		}
		if !advanced {
			stack = stack[:len(stack)-1]
		}
	}

	return &searchResult{
		found:     s.found,
		assign:    s.bestAssign,
		penalty:   s.bestPenalty,
		truncated: s.truncated,
		nodes:     s.nodes,
	}
}

func (s *search) stopped() bool {
	if s.nodeLimit > 0 && s.nodes >= s.nodeLimit {
		return true
	}
	// Wall-clock checks are amortized; the node counter keeps truncation
	// deterministic when only the node budget bites.
	if s.nodes&1023 == 0 && s.ctx.Err() != nil {
		return true
	}
	return false
}

// feasibleChoices builds the candidate list for a slot, or nil to prune the
// node. Pruning uses the accumulated decomposable penalty (terminal terms
// are non-negative) and a per-doctor minimum-score reachability bound.
func (s *search) feasibleChoices(slotIdx int) []int {
	if s.shouldPrune() {
		return nil
	}
	day := s.slots[slotIdx].day
	numDays := s.prob.Cal.NumDays
	for d := 0; d < s.prob.NumDoctors; d++ {
		earliest := s.lastDuty[d] + minSpacing
		if earliest < day {
			earliest = day
		}
		capacity := 0
		if earliest <= numDays {
			capacity = ((numDays-earliest)/minSpacing + 1) * unitSatNight
		}
		if s.score10[d]+capacity < s.prob.Doctors[d].Min10 {
			return nil
		}
	}
	cands := make([]int, s.prob.NumDoctors)
	for d := range cands {
		cands[d] = d
	}
	// Lowest score first; the stable sort keeps ascending index on ties so
	// the exploration order is fully deterministic.
	sort.SliceStable(cands, func(i, j int) bool {
		return s.score10[cands[i]] < s.score10[cands[j]]
	})
	return cands
}

// shouldPrune decides whether the current partial assignment can still lead
// to a preferred solution. Only strictly worse subtrees are cut: an
// equal-penalty assignment may still win the lexicographic tie-break, and
// the terminal penalty terms are non-negative, so the accumulated step
// penalty is an admissible lower bound on the total.
func (s *search) shouldPrune() bool {
	if s.found && s.stepPenalty > s.bestPenalty {
		return true
	}
	if s.shared != nil && s.stepPenalty > s.shared.load() {
		return true
	}
	return false
}

// apply checks the hard constraints for assigning doctor d to the slot and,
// when satisfied, mutates the search state. It returns the doctor's previous
// last-duty day and the penalty delta for the undo.
func (s *search) apply(slotIdx, d int) (prevLast int, delta int64, ok bool) {
	slot := s.slots[slotIdx]
	day := slot.day
	prob := s.prob

	if !prob.Eligible(d, day) {
		return 0, 0, false
	}
	// Covers the rest gap, the cross-month carry-over, and same-day
	// double duty in one comparison.
	if day-s.lastDuty[d] < minSpacing {
		return 0, 0, false
	}

	isHoliday := prob.Cal.IsHoliday(day)
	// The quota and the consecutive-Saturday term go by weekday alone; a
	// holiday falling on a Saturday still counts against both.
	isSat := prob.Cal.IsSaturday(day)
	if slot.night && isSat && s.satNights[d] >= 1 {
		return 0, 0, false
	}

	nightUnits, dayUnits := prob.DayUnits(day)
	units := nightUnits
	if !slot.night {
		units = dayUnits
	}
	if s.score10[d]+units > prob.Doctors[d].Max10 {
		return 0, 0, false
	}

	w := prob.Weights
	switch day - s.lastDuty[d] {
	case minSpacing:
		delta += int64(w.Gap5)
	case minSpacing + 1:
		delta += int64(w.Gap6)
	}
	if slot.night {
		if prob.ClinicEve(d, day) {
			delta += int64(w.PreClinic)
		}
		if isSat && prob.Doctors[d].SatPrev {
			delta += int64(w.SatConsec)
		}
	}
	if isHoliday && s.sunholCount[d] >= 2 {
		delta += int64(w.Sunhol3rd)
	}

	prevLast = s.lastDuty[d]
	s.lastDuty[d] = day
	s.score10[d] += units
	if slot.night && isSat {
		s.satNights[d]++
	}
	if isHoliday {
		s.sunholCount[d]++
	}
	s.stepPenalty += delta
	s.assign[slotIdx] = d
	return prevLast, delta, true
}

func (s *search) undo(slotIdx, d, prevLast int, delta int64) {
	slot := s.slots[slotIdx]
	day := slot.day
	isHoliday := s.prob.Cal.IsHoliday(day)
	isSat := s.prob.Cal.IsSaturday(day)

	nightUnits, dayUnits := s.prob.DayUnits(day)
	units := nightUnits
	if !slot.night {
		units = dayUnits
	}

	s.lastDuty[d] = prevLast
	s.score10[d] -= units
	if slot.night && isSat {
		s.satNights[d]--
	}
	if isHoliday {
		s.sunholCount[d]--
	}
	s.stepPenalty -= delta
	s.assign[slotIdx] = -1
}

// onLeaf evaluates a complete assignment against the minimum-score hard
// bound and the incumbent.
func (s *search) onLeaf() {
	for d := 0; d < s.prob.NumDoctors; d++ {
		if s.score10[d] < s.prob.Doctors[d].Min10 {
			return
		}
	}

	total := s.stepPenalty + s.terminal()
	if s.found {
		if total > s.bestPenalty {
			return
		}
		if total == s.bestPenalty && !lexLess(s.assign, s.bestAssign) {
			return
		}
	}
	s.found = true
	s.bestPenalty = total
	s.bestAssign = append(s.bestAssign[:0], s.assign...)
	if s.shared != nil {
		s.shared.lower(total)
	}
}

func (s *search) terminal() int64 {
	acct := Accounting{
		Scores10:     s.score10,
		SatNights:    s.satNights,
		SunholDuties: s.sunholCount,
	}
	return terminalPenalty(s.prob, &acct)
}

func lexLess(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// mergeResults picks the final solution by deterministic comparison of the
// workers' complete candidates, so parallel scheduling never changes the
// returned assignment.
func mergeResults(prob *Problem, slots []slotRef, results []*searchResult) *Outcome {
	var (
		best      *searchResult
		truncated bool
		nodes     int64
	)
	for _, res := range results {
		if res == nil {
			continue
		}
		nodes += res.nodes
		if res.truncated {
			truncated = true
		}
		if !res.found {
			continue
		}
		if best == nil || res.penalty < best.penalty ||
			(res.penalty == best.penalty && lexLess(res.assign, best.assign)) {
			best = res
		}
	}

	if best == nil {
		if truncated {
			return &Outcome{
				Feasible: false,
				Timeout:  true,
				Reason:   "timeout: search incomplete, no feasible assignment found within budget",
				Nodes:    nodes,
			}
		}
		return &Outcome{
			Feasible: false,
			Proven:   true,
			Reason:   "no assignment satisfies the hard constraints",
			Nodes:    nodes,
		}
	}

	asg := assignmentFromSlots(prob, slots, best.assign)
	return &Outcome{
		Feasible:   true,
		Proven:     !truncated,
		Timeout:    truncated,
		Assignment: asg,
		Accounting: Account(prob, asg),
		Penalty:    best.penalty,
		Nodes:      nodes,
	}
}

func assignmentFromSlots(prob *Problem, slots []slotRef, flat []int) *Assignment {
	asg := &Assignment{
		Nights: make([]int, prob.Cal.NumDays),
		Days:   make([]int, prob.Cal.NumDays),
	}
	for i := range asg.Days {
		asg.Days[i] = -1
	}
	for i, slot := range slots {
		if slot.night {
			asg.Nights[slot.day-1] = flat[i]
		} else {
			asg.Days[slot.day-1] = flat[i]
		}
	}
	return asg
}
