// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/staranto/ec2schedgo/internal/clock"
)

// maxAttempts bounds the AskTime retry loop.
const maxAttempts = 5

// Prompter reads answers line by line from one reader. Keep a single
// Prompter per input stream; its buffer may hold lines not yet consumed.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prints question and returns the trimmed answer, or def when the answer
// is empty.
func (p *Prompter) Ask(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", question)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}

	answer := strings.TrimSpace(line)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskTime asks until the answer parses as a deadline relative to ref.
func (p *Prompter) AskTime(question string, ref time.Time) (time.Time, error) {
	for attempt := 1; ; attempt++ {
		answer, err := p.Ask(question, "")
		if err != nil {
			return time.Time{}, err
		}

		t, err := clock.Parse(answer, ref)
		if err == nil {
			return t, nil
		}

		log.Debugf("attempt %d: %v", attempt, err)
		if attempt >= maxAttempts {
			return time.Time{}, fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}
		fmt.Fprintf(p.out, "  %v (try 9:30, 9:30pm, 21:30, +45m or a cron spec)\n", err)
	}
}

// Confirm asks a yes/no question. Anything but y/yes is a no.
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.Ask(question+" (y/N)", "")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
