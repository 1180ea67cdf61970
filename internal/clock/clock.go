// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrEmpty   = errors.New("no time given")
	ErrInvalid = errors.New("unrecognized time")
)

// clockRe matches H, H:MM and H:MM:SS with an optional meridiem such as
// "pm", "p", "p.m.".
var clockRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(?::(\d{2}))?\s*(?:([ap])\.?(?:m\.?)?)?$`)

// Parse returns the deadline described by input, resolved against ref. The
// result is always strictly after ref, except for "now" which is ref itself.
//
// Accepted forms:
//
//	9, 9:30, 9:30:15    ambiguous 12-hour clock, nearest future AM or PM
//	9:30pm, 9:30 AM     explicit meridiem
//	21:30, 0:15         24-hour clock
//	noon, midnight
//	now, +90m, +1h30m   relative to ref
//	0 22 * * 1-5        standard cron, next firing after ref
//	@daily, @every 2h   cron descriptors
func Parse(input string, ref time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return time.Time{}, ErrEmpty
	}

	switch s {
	case "now":
		return ref, nil
	case "noon":
		s = "12pm"
	case "midnight":
		s = "0:00"
	}

	if strings.HasPrefix(s, "+") {
		d, err := time.ParseDuration(s[1:])
		if err != nil || d <= 0 {
			return time.Time{}, fmt.Errorf("%w: %q is not a positive duration", ErrInvalid, input)
		}
		return ref.Add(d), nil
	}

	if strings.HasPrefix(s, "@") || len(strings.Fields(s)) == 5 {
		return nextCron(s, ref)
	}

	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalid, input)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, sec := 0, 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		sec, _ = strconv.Atoi(m[3])
	}
	if minute > 59 || sec > 59 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalid, input)
	}

	meridiem := m[4]
	switch {
	case meridiem != "":
		if hour < 1 || hour > 12 {
			return time.Time{}, fmt.Errorf("%w: hour %d with %sm", ErrInvalid, hour, meridiem)
		}
		hour %= 12
		if meridiem == "p" {
			hour += 12
		}
		return nextDaily(ref, hour, minute, sec), nil
	case hour == 0 || hour > 12:
		if hour > 23 {
			return time.Time{}, fmt.Errorf("%w: hour %d", ErrInvalid, hour)
		}
		return nextDaily(ref, hour, minute, sec), nil
	default:
		return nextAmbiguous(ref, hour, minute, sec), nil
	}
}

// nextDaily returns today at h:m:s, or tomorrow if that is not after ref.
func nextDaily(ref time.Time, h, m, s int) time.Time {
	t := time.Date(ref.Year(), ref.Month(), ref.Day(), h, m, s, 0, ref.Location())
	if !t.After(ref) {
		t = time.Date(ref.Year(), ref.Month(), ref.Day()+1, h, m, s, 0, ref.Location())
	}
	return t
}

// nextAmbiguous resolves a 12-hour clock reading without a meridiem to the
// first of today AM, today PM, tomorrow AM that is after ref. For 12 the
// AM reading is midnight and the PM reading is noon.
func nextAmbiguous(ref time.Time, h, m, s int) time.Time {
	am := h % 12
	for day := 0; day < 2; day++ {
		for _, hour := range []int{am, am + 12} {
			t := time.Date(ref.Year(), ref.Month(), ref.Day()+day, hour, m, s, 0, ref.Location())
			if t.After(ref) {
				return t
			}
		}
	}
	// Unreachable: tomorrow's PM reading is always after ref.
	return time.Date(ref.Year(), ref.Month(), ref.Day()+1, am+12, m, s, 0, ref.Location())
}

func nextCron(spec string, ref time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(strings.TrimSpace(spec))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalid, spec, err)
	}
	next := sched.Next(ref)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("%w: %q never fires", ErrInvalid, spec)
	}
	return next, nil
}
