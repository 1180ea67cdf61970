// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package countdown

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apex/log"
	"golang.org/x/term"
)

type options struct {
	poll  time.Duration
	w     io.Writer
	force bool
	label string
	now   func() time.Time
}

// Option customizes Until.
type Option func(*options)

// WithPoll switches Until to busy-polling: it wakes every interval and
// re-reads the wall clock instead of sleeping once.
func WithPoll(interval time.Duration) Option {
	return func(o *options) { o.poll = interval }
}

// WithWriter renders a one-line countdown to w on every poll. Rendering is
// skipped when w is not a terminal.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.w = w }
}

// WithForceRender renders even when the writer is not a terminal.
func WithForceRender() Option {
	return func(o *options) { o.force = true }
}

// WithLabel sets the text shown before the remaining time.
func WithLabel(label string) Option {
	return func(o *options) { o.label = label }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Until blocks until deadline passes or ctx is done, in which case ctx.Err()
// is returned.
func Until(ctx context.Context, deadline time.Time, opts ...Option) error {
	o := options{label: "waiting", now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if o.poll <= 0 {
		return sleep(ctx, deadline.Sub(o.now()))
	}

	render := o.w != nil && (o.force || isTerminal(o.w))
	log.Debugf("polling every %s until %s (render=%v)", o.poll, deadline.Format(time.RFC3339), render)

	for {
		remaining := deadline.Sub(o.now())
		if remaining <= 0 {
			if render {
				fmt.Fprintf(o.w, "\r%s: done%s\n", o.label, pad)
			}
			return nil
		}

		if render {
			fmt.Fprintf(o.w, "\r%s in %s%s", o.label, Format(remaining), pad)
		}

		wait := o.poll
		if remaining < wait {
			wait = remaining
		}
		if err := sleep(ctx, wait); err != nil {
			if render {
				fmt.Fprintln(o.w)
			}
			return err
		}
	}
}

// pad clears leftovers from a previous, longer line.
const pad = "    "

// Format renders d as HH:MM:SS, prefixed with whole days when d spans more
// than one.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if days > 0 {
		return fmt.Sprintf("%dd %02d:%02d:%02d", days, h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
