package playback

import "time"

// Scheduler queues the next display-refresh callback. Any scheduler
// that supports "schedule next, check token, bail out" satisfies the
// playback contract; cancellation happens by token comparison, never by
// revoking a queued callback.
type Scheduler interface {
	Schedule(fn func())
}

// TimerScheduler fires callbacks after a fixed refresh interval, the
// production stand-in for a display vsync.
type TimerScheduler struct {
	Interval time.Duration
}

func (t TimerScheduler) Schedule(fn func()) {
	time.AfterFunc(t.Interval, fn)
}

// QueueScheduler collects callbacks and runs them when drained. Used
// for synchronous replay (frame export over HTTP) and in tests.
type QueueScheduler struct {
	queue []func()
}

func (q *QueueScheduler) Schedule(fn func()) {
	q.queue = append(q.queue, fn)
}

// Pending reports whether any callback is queued.
func (q *QueueScheduler) Pending() bool {
	return len(q.queue) > 0
}

// RunNext runs the oldest queued callback, if any.
func (q *QueueScheduler) RunNext() bool {
	if len(q.queue) == 0 {
		return false
	}
	fn := q.queue[0]
	q.queue = q.queue[1:]
	fn()
	return true
}

// Drain runs callbacks until the queue stays empty.
func (q *QueueScheduler) Drain() {
	for q.RunNext() {
	}
}
