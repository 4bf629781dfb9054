package catalog

import (
	"time"

	"gopkg.in/tomb.v2"
)

// ErrStillRunning is returned by RefreshTask.Err while the fetch is in progress.
var ErrStillRunning = tomb.ErrStillAlive

// RefreshTask is the handle of one background catalog fetch.
type RefreshTask struct {
	t         tomb.Tomb
	StartedAt time.Time
}

func newRefreshTask(startedAt time.Time, fn func() error) *RefreshTask {
	task := &RefreshTask{StartedAt: startedAt}
	task.t.Go(fn)
	return task
}

// Done is closed when the fetch has finished.
func (r *RefreshTask) Done() <-chan struct{} {
	return r.t.Dead()
}

// Wait blocks until the fetch has finished and returns its error.
func (r *RefreshTask) Wait() error {
	return r.t.Wait()
}

// Err returns the fetch error, nil on success, or ErrStillRunning.
func (r *RefreshTask) Err() error {
	return r.t.Err()
}

// Running reports whether the fetch is still in progress.
func (r *RefreshTask) Running() bool {
	select {
	case <-r.t.Dead():
		return false
	default:
		return true
	}
}
