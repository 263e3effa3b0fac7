// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"math"
	"time"
)

// attemptBaseDelay is the base backoff between page attempts. Tests
// override this to avoid real sleeps.
var attemptBaseDelay = 500 * time.Millisecond

// attemptState is the lifecycle of one page fetch. Both terminal
// outcomes are first-class so retry behavior is testable without a
// network.
type attemptState int

const (
	statePending attemptState = iota
	stateRetrying
	stateSucceeded
	stateExhausted
)

// pageAttempt drives bounded retry for a single screener page.
type pageAttempt struct {
	state   attemptState
	tries   int
	max     int
	lastErr error
}

func newPageAttempt(maxRetries int) *pageAttempt {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &pageAttempt{state: statePending, max: maxRetries}
}

// fail records a failed try and moves to Retrying or Exhausted.
func (a *pageAttempt) fail(err error) {
	a.lastErr = err
	a.tries++
	if a.tries > a.max {
		a.state = stateExhausted
		return
	}
	a.state = stateRetrying
}

func (a *pageAttempt) succeed() {
	a.state = stateSucceeded
}

// backoff returns the wait before the next try: base, 2x, 4x, ...
func (a *pageAttempt) backoff() time.Duration {
	exp := a.tries - 1
	if exp < 0 {
		exp = 0
	}
	return time.Duration(math.Pow(2, float64(exp))) * attemptBaseDelay
}
