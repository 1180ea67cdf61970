// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package schedule runs one instance through a launch/terminate (or
// start/stop) window.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

var ErrPlan = errors.New("invalid schedule")

// Plan is the pair of deadlines for one run.
type Plan struct {
	Launch    time.Time
	Terminate time.Time
	// Ref is the time the deadlines were resolved against. A launch that
	// was not in the past at Ref but came due since (while prompting or
	// connecting) runs immediately.
	Ref time.Time
}

// Validate checks that termination follows launch, that termination has not
// passed, and that launch is not further in the past than grace, measured
// from Ref when that is earlier than now.
func (p Plan) Validate(now time.Time, grace time.Duration) error {
	if p.Launch.IsZero() || p.Terminate.IsZero() {
		return fmt.Errorf("%w: both launch and termination times are required", ErrPlan)
	}
	if !p.Terminate.After(p.Launch) {
		return fmt.Errorf("%w: termination %s is not after launch %s", ErrPlan,
			p.Terminate.Format(time.DateTime), p.Launch.Format(time.DateTime))
	}
	if !p.Terminate.After(now) {
		return fmt.Errorf("%w: termination %s is in the past", ErrPlan, p.Terminate.Format(time.DateTime))
	}
	ref := now
	if !p.Ref.IsZero() && p.Ref.Before(now) {
		ref = p.Ref
	}
	if p.Launch.Before(ref.Add(-grace)) {
		return fmt.Errorf("%w: launch %s is in the past", ErrPlan, p.Launch.Format(time.DateTime))
	}
	return nil
}

// Window is how long the instance is expected to live.
func (p Plan) Window() time.Duration {
	return p.Terminate.Sub(p.Launch)
}
