// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"

	"github.com/staranto/ec2schedgo/internal/countdown"
)

const DefaultDownTimeout = 15 * time.Minute

// WaitFunc blocks until deadline or until ctx is done.
type WaitFunc func(ctx context.Context, deadline time.Time, label string) error

// Runner walks a Plan: wait for launch, Up, wait for termination, Down.
type Runner struct {
	// Poll enables busy-polling at this interval. Zero sleeps once.
	Poll time.Duration
	// Writer receives the countdown line when Countdown is set.
	Writer    io.Writer
	Countdown bool

	// DownOnInterrupt issues Down with a fresh context when the wait for
	// termination is cancelled.
	DownOnInterrupt bool
	DownTimeout     time.Duration

	Now  func() time.Time
	Wait WaitFunc
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) wait(ctx context.Context, deadline time.Time, label string) error {
	if r.Wait != nil {
		return r.Wait(ctx, deadline, label)
	}

	opts := []countdown.Option{countdown.WithLabel(label)}
	if r.Poll > 0 {
		opts = append(opts, countdown.WithPoll(r.Poll))
	}
	if r.Countdown && r.Writer != nil {
		opts = append(opts, countdown.WithWriter(r.Writer))
	}
	return countdown.Until(ctx, deadline, opts...)
}

// Run executes plan with lc and returns the ID of the instance it brought up,
// if any.
func (r *Runner) Run(ctx context.Context, plan Plan, lc Lifecycle) (string, error) {
	if err := plan.Validate(r.now(), r.Poll+time.Second); err != nil {
		return "", err
	}

	ctxLog := log.WithField("flavour", lc.Name())
	ctxLog.Infof("launch at %s (%s)", plan.Launch.Format(time.DateTime),
		humanize.RelTime(plan.Launch, r.now(), "ago", "from now"))
	ctxLog.Infof("terminate at %s (window %s)", plan.Terminate.Format(time.DateTime),
		countdown.Format(plan.Window()))

	if err := r.wait(ctx, plan.Launch, "launch"); err != nil {
		return "", fmt.Errorf("interrupted before launch: %w", err)
	}

	id, err := lc.Up(ctx)
	if err != nil {
		if id != "" {
			ctxLog.WithField("instance", id).Warn("bringing instance down after failed start")
			if downErr := r.down(lc, id); downErr != nil {
				err = errors.Join(err, downErr)
			}
		}
		return id, fmt.Errorf("failed to bring instance up: %w", err)
	}
	ctxLog = ctxLog.WithField("instance", id)
	ctxLog.Infof("up, terminating %s", humanize.RelTime(plan.Terminate, r.now(), "ago", "from now"))

	if err := r.wait(ctx, plan.Terminate, "terminate"); err != nil {
		if !r.DownOnInterrupt {
			ctxLog.Warn("interrupted, leaving instance up")
			return id, fmt.Errorf("interrupted before termination: %w", err)
		}
		ctxLog.Warn("interrupted, bringing instance down now")
		if downErr := r.down(lc, id); downErr != nil {
			return id, errors.Join(fmt.Errorf("interrupted before termination: %w", err), downErr)
		}
		return id, fmt.Errorf("interrupted before termination: %w", err)
	}

	downFn := lc.Down
	if ctx.Err() != nil && r.DownOnInterrupt {
		// Cancelled as the wait returned.
		downFn = func(_ context.Context, id string) error { return r.down(lc, id) }
	}
	if err := downFn(ctx, id); err != nil {
		return id, fmt.Errorf("failed to bring instance down: %w", err)
	}
	ctxLog.Info("done")
	return id, nil
}

// down runs Down on a context detached from the caller's cancellation.
func (r *Runner) down(lc Lifecycle, id string) error {
	timeout := r.DownTimeout
	if timeout <= 0 {
		timeout = DefaultDownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return lc.Down(ctx, id)
}
