// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, h, m int) time.Time {
	return time.Date(2026, time.March, day, h, m, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ref   time.Time
		want  time.Time
	}{
		// Ambiguous 12-hour readings.
		{name: "morning reading still ahead", input: "9:30", ref: at(10, 8, 0), want: at(10, 9, 30)},
		{name: "morning passed rolls to pm", input: "9:30", ref: at(10, 10, 0), want: at(10, 21, 30)},
		{name: "pm passed rolls to tomorrow am", input: "9:30", ref: at(10, 22, 0), want: at(11, 9, 30)},
		{name: "bare hour", input: "7", ref: at(10, 12, 0), want: at(10, 19, 0)},
		{name: "twelve is noon before noon", input: "12:15", ref: at(10, 9, 0), want: at(10, 12, 15)},
		{name: "twelve is midnight after noon", input: "12:15", ref: at(10, 13, 0), want: at(11, 0, 15)},
		{name: "exactly now rolls forward", input: "9:30", ref: at(10, 9, 30), want: at(10, 21, 30)},

		// Explicit meridiem.
		{name: "explicit pm", input: "9:30 PM", ref: at(10, 8, 0), want: at(10, 21, 30)},
		{name: "explicit am passed", input: "9:30am", ref: at(10, 10, 0), want: at(11, 9, 30)},
		{name: "dotted meridiem", input: "6 p.m.", ref: at(10, 8, 0), want: at(10, 18, 0)},
		{name: "short meridiem", input: "6p", ref: at(10, 8, 0), want: at(10, 18, 0)},
		{name: "12am is midnight", input: "12am", ref: at(10, 8, 0), want: at(11, 0, 0)},
		{name: "12pm is noon", input: "12pm", ref: at(10, 8, 0), want: at(10, 12, 0)},

		// 24-hour clock.
		{name: "24h later today", input: "21:45", ref: at(10, 8, 0), want: at(10, 21, 45)},
		{name: "24h passed", input: "13:00", ref: at(10, 14, 0), want: at(11, 13, 0)},
		{name: "zero hour", input: "0:05", ref: at(10, 14, 0), want: at(11, 0, 5)},
		{name: "seconds", input: "21:45:30", ref: at(10, 8, 0), want: at(10, 21, 45).Add(30 * time.Second)},

		// Keywords and relative.
		{name: "noon", input: "noon", ref: at(10, 8, 0), want: at(10, 12, 0)},
		{name: "midnight", input: "Midnight", ref: at(10, 8, 0), want: at(11, 0, 0)},
		{name: "now", input: "now", ref: at(10, 8, 0), want: at(10, 8, 0)},
		{name: "relative", input: "+1h30m", ref: at(10, 8, 0), want: at(10, 9, 30)},

		// Cron.
		{name: "cron weekdays", input: "0 22 * * 1-5", ref: at(13, 23, 0), want: at(16, 22, 0)},
		{name: "cron descriptor", input: "@daily", ref: at(10, 8, 0), want: at(11, 0, 0)},

		// Month rollover.
		{name: "rolls across month end", input: "6:00", ref: time.Date(2026, time.March, 31, 19, 0, 0, 0, time.UTC), want: time.Date(2026, time.April, 1, 6, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	ref := at(10, 8, 0)

	_, err := Parse("   ", ref)
	assert.ErrorIs(t, err, ErrEmpty)

	for _, in := range []string{"25:00", "9:75", "13pm", "0am", "tomorrow", "+", "+-5m", "+abc", "61 * * * *", "9:30:99"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in, ref)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParse_TerminationRelativeToLaunch(t *testing.T) {
	now := at(10, 20, 0)
	launch, err := Parse("11:00", now)
	require.NoError(t, err)
	assert.Equal(t, at(10, 23, 0), launch)

	// "1" after an 11pm launch means 1am the next day, not 1pm.
	term, err := Parse("1", launch)
	require.NoError(t, err)
	assert.Equal(t, at(11, 1, 0), term)
	assert.True(t, term.After(launch))
}
