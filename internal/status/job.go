// Package status holds the results of background work that the UI
// dispatcher polls.
//
// Workers never call back into the UI.  They write into a Job slot or
// the Probes cache, and the UI thread reads those on its own schedule.
// Every method is safe for concurrent use.
package status

import "sync"

// Job is the single slot for the most recently started long job.
// Starting a new job resets the slot; a job that is still running from
// before keeps writing into it, so the last completed Set wins.
type Job struct {
	mu   sync.Mutex
	text string
}

// NewJob returns an empty slot.
func NewJob() *Job {
	return &Job{}
}

// Reset clears the slot.  Call it right before starting a new job.
func (j *Job) Reset() {
	j.mu.Lock()
	j.text = ""
	j.mu.Unlock()
}

// Set overwrites the slot with text.
func (j *Job) Set(text string) {
	j.mu.Lock()
	j.text = text
	j.mu.Unlock()
}

// Get returns the latest text, or "" if nothing was set since the last
// Reset.
func (j *Job) Get() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.text
}
