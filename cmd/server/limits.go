package main

import (
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// admission bounds how much matrix work the server accepts at once.
type admission struct {
	// jobs is weighted by worker count; nil when unlimited.
	jobs *semaphore.Weighted
	// requests is nil when unlimited.
	requests *rate.Limiter
}

// newAdmission creates the limits. maxWorkers caps the sum of workers across
// concurrent /matrix runs; ratePerSec caps requests per second on every path.
// Zero disables a limit.
func newAdmission(maxWorkers int64, ratePerSec float64) *admission {
	a := &admission{}
	if maxWorkers > 0 {
		a.jobs = semaphore.NewWeighted(maxWorkers)
	}
	if ratePerSec > 0 {
		a.requests = rate.NewLimiter(rate.Limit(ratePerSec), max(1, int(ratePerSec)))
	}
	return a
}

// allow reports whether another request may be served now.
func (a *admission) allow() bool {
	if a == nil || a.requests == nil {
		return true
	}
	return a.requests.Allow()
}

// acquire reserves workers for one run without blocking. The returned
// function releases them.
func (a *admission) acquire(workers int) (func(), bool) {
	if a == nil || a.jobs == nil {
		return func() {}, true
	}
	n := int64(workers)
	if !a.jobs.TryAcquire(n) {
		return nil, false
	}
	return func() { a.jobs.Release(n) }, true
}
