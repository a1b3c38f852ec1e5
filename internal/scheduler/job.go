package scheduler

import (
	"context"
	"time"
)

// Job is a unit of scheduled work. Schedule uses six cron fields
// (seconds first) or a descriptor such as "@daily".
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error
	Schedule() string
}

// Execution records one run of a job, retries included
type Execution struct {
	Job      string    `json:"job"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Attempts int       `json:"attempts"`
	Err      string    `json:"error,omitempty"`
}

// Succeeded reports whether the final attempt returned nil
func (e Execution) Succeeded() bool { return e.Err == "" }

// Elapsed is the wall time across all attempts
func (e Execution) Elapsed() time.Duration { return e.Finished.Sub(e.Started) }

// historyLimit caps stored executions per job
const historyLimit = 100

// History keeps the most recent executions of one job, oldest first
type History struct {
	entries []Execution
}

// Record appends e, dropping the oldest entry past historyLimit
func (h *History) Record(e Execution) {
	if len(h.entries) == historyLimit {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:historyLimit-1]
	}
	h.entries = append(h.entries, e)
}

func (h *History) Len() int { return len(h.entries) }

// Executions returns a copy of the stored entries
func (h *History) Executions() []Execution {
	return append([]Execution(nil), h.entries...)
}

// Last returns the newest execution
func (h *History) Last() (Execution, bool) {
	if len(h.entries) == 0 {
		return Execution{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// SuccessRate is the share of stored executions that succeeded, 0 when empty
func (h *History) SuccessRate() float64 {
	if len(h.entries) == 0 {
		return 0
	}
	ok := 0
	for _, e := range h.entries {
		if e.Succeeded() {
			ok++
		}
	}
	return float64(ok) / float64(len(h.entries))
}
