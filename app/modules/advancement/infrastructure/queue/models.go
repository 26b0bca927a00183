package advancementqueue

// SlotCloseJob fires when a slot's voting window lapses and drives one
// advancement attempt.
type SlotCloseJob struct {
	SlotID string `json:"slot_id"`
}

// Kind returns the job type identifier for River.
func (SlotCloseJob) Kind() string { return "slot_close" }

// JobInfo describes a scheduled job for monitoring.
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	SlotID      string `json:"slot_id"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
