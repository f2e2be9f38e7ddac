package jobs

import (
	rderr "rdesk/internal/errors"
	"rdesk/internal/identity"
)

// StartIdentityChange resets the job slot and changes oldID to newID in
// the background.  The slot ends up holding "done", "Invalid format",
// or the failure text.
func (r *Runner) StartIdentityChange(newID, oldID string) {
	r.job.Reset()
	r.metrics.JobStarted()
	r.logger.Verbose("change id %s -> %s", oldID, newID)

	r.spawn(func() {
		r.job.Set(r.changeID(newID, oldID))
	})
}

func (r *Runner) changeID(newID, oldID string) string {
	if !identity.ValidID(newID) {
		r.metrics.JobFailed()
		return ResultInvalidFormat
	}
	if err := r.ident.ChangeID(r.ctx, oldID, newID); err != nil {
		r.metrics.JobFailed()
		if rderr.Is(err, rderr.ErrInvalidID) {
			return ResultInvalidFormat
		}
		r.logger.Warn("change id: %v", err)
		return err.Error()
	}
	r.logger.Info("id changed to %s", newID)
	return ResultDone
}
