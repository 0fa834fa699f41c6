package scheduler

import (
	"github.com/hibiken/asynq"
)

// Task type names. Both sweeps are payload-free; the handler scans the whole
// table for overdue rows.
const (
	TaskLeadExpireSweep  = "leads.expire-sweep"
	TaskQuoteExpireSweep = "quotes.expire-sweep"
)

func NewLeadExpireSweepTask() *asynq.Task {
	return asynq.NewTask(TaskLeadExpireSweep, nil)
}

func NewQuoteExpireSweepTask() *asynq.Task {
	return asynq.NewTask(TaskQuoteExpireSweep, nil)
}
