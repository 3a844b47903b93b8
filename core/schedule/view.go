package schedule

import (
	"sort"
	"sync"
)

// FilterAll is the selector sentinel matching every entry.
const FilterAll = "all"

// View owns the last-received solver Result and derives filter option sets and
// filtered subsets from it. The result is replaced wholesale, never merged, and
// the validation report is surfaced verbatim: correctness of the schedule is
// entirely the solver's responsibility.
type View struct {
	mu     sync.RWMutex
	result Result
	subs   []func(Result)
}

func NewView() *View {
	return &View{result: emptyResult()}
}

func emptyResult() Result {
	return Result{
		Validation: ValidationReport{OK: true, Errors: []string{}},
		Schedule:   []ScheduledExam{},
	}
}

// Subscribe registers fn to be called after every result replacement.
func (v *View) Subscribe(fn func(Result)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.subs = append(v.subs, fn)
}

// SetResult replaces the current result wholesale.
func (v *View) SetResult(res Result) {
	v.mu.Lock()
	if res.Schedule == nil {
		res.Schedule = []ScheduledExam{}
	}
	if res.Validation.Errors == nil {
		res.Validation.Errors = []string{}
	}
	v.result = res
	subs := append(([]func(Result))(nil), v.subs...)
	v.mu.Unlock()

	for _, fn := range subs {
		fn(res)
	}
}

// Result returns the current result. Callers must treat it as read-only.
func (v *View) Result() Result {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.result
}

func (v *View) options(name func(ScheduledExam) string) []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	seen := make(map[string]struct{})
	opts := make([]string, 0)
	for _, item := range v.result.Schedule {
		n := name(item)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		opts = append(opts, n)
	}
	sort.Strings(opts)
	return opts
}

// GroupOptions returns the sorted, de-duplicated group names present in the
// current schedule. The FilterAll sentinel is implicit and never listed.
func (v *View) GroupOptions() []string {
	return v.options(func(item ScheduledExam) string { return item.GroupName })
}

func (v *View) TeacherOptions() []string {
	return v.options(func(item ScheduledExam) string { return item.TeacherName })
}

func (v *View) SubjectOptions() []string {
	return v.options(func(item ScheduledExam) string { return item.SubjectName })
}

// Filtered returns the entries matching all three selectors, preserving input
// order. A FilterAll selector matches everything; an empty result is a valid,
// displayable state.
func (v *View) Filtered(group, teacher, subject string) []ScheduledExam {
	v.mu.RLock()
	defer v.mu.RUnlock()

	res := make([]ScheduledExam, 0, len(v.result.Schedule))
	for _, item := range v.result.Schedule {
		if group != FilterAll && item.GroupName != group {
			continue
		}
		if teacher != FilterAll && item.TeacherName != teacher {
			continue
		}
		if subject != FilterAll && item.SubjectName != subject {
			continue
		}
		res = append(res, item)
	}
	return res
}
