package download

import (
	"time"
)

// Report summarizes a Manager run.
type Report struct {
	// Outcomes holds one entry per task, in task order.
	Outcomes []Outcome

	// Completed is the final value of the aggregate counter.
	Completed int64

	// FreeLanes is the number of idle lanes once every task had reported.
	FreeLanes int

	Elapsed time.Duration
}

// Total returns the number of tasks.
func (r *Report) Total() int { return len(r.Outcomes) }

// Succeeded counts tasks that transferred a body.
func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() && !o.Skipped {
			n++
		}
	}
	return n
}

// Skipped counts tasks left alone because the file already existed.
func (r *Report) Skipped() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() && o.Skipped {
			n++
		}
	}
	return n
}

// Failed counts tasks that ended with an error.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

// Failures returns the failed outcomes in task order.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Bytes is the total number of body bytes transferred.
func (r *Report) Bytes() int64 {
	var n int64
	for _, o := range r.Outcomes {
		n += o.Bytes
	}
	return n
}

// LanesUsed returns the number of distinct lanes tasks ran on.
func (r *Report) LanesUsed() int {
	seen := make(map[int]struct{})
	for _, o := range r.Outcomes {
		if o.Lane >= 0 {
			seen[o.Lane] = struct{}{}
		}
	}
	return len(seen)
}

// ExitCode is 0 when every task succeeded or was skipped and 1 otherwise.
func (r *Report) ExitCode() int {
	if r.Failed() > 0 {
		return 1
	}
	return 0
}
