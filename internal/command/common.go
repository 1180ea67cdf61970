// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ec2schedgo/internal/attrs"
	"github.com/staranto/ec2schedgo/internal/aws"
	"github.com/staranto/ec2schedgo/internal/clock"
	"github.com/staranto/ec2schedgo/internal/instance"
	"github.com/staranto/ec2schedgo/internal/meta"
	"github.com/staranto/ec2schedgo/internal/prompt"
	"github.com/staranto/ec2schedgo/internal/schedule"
)

// ErrAborted is returned when the operator declines the schedule.
var ErrAborted = errors.New("aborted")

// GetMeta returns the meta.Meta stored in the command's Metadata, or one
// wired to the process stdio when missing.
func GetMeta(cmd *cli.Command) meta.Meta {
	m := meta.Meta{}
	if cmd != nil && cmd.Metadata != nil {
		if v, ok := cmd.Metadata["meta"].(meta.Meta); ok {
			m = v
		}
	}
	if m.Stdin == nil {
		m.Stdin = os.Stdin
	}
	if m.Stdout == nil {
		m.Stdout = os.Stdout
	}
	if m.Stderr == nil {
		m.Stderr = os.Stderr
	}
	return m
}

// CommandBuilder assembles a subcommand with the metadata and the flags every
// ec2sched command shares.
type CommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (cb *CommandBuilder) Build() *cli.Command {
	flags := append([]cli.Flag{NewEnvFileFlag()}, cb.Flags...)
	return &cli.Command{
		Name:      cb.Name,
		Usage:     cb.Usage,
		UsageText: cb.UsageText,
		Metadata: map[string]any{
			"meta": cb.Meta,
		},
		Flags:  flags,
		Action: cb.Action,
	}
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (attrs.AttrList, error) {
	specs := append([]string{}, defaults...)
	if extras := cmd.String("attrs"); extras != "" {
		specs = append(specs, extras)
	}
	return attrs.Parse(specs...)
}

// loadSettings reads the environment and applies --region and --profile.
func loadSettings(cmd *cli.Command) (aws.Settings, error) {
	s, err := aws.ParseSettings()
	if err != nil {
		return aws.Settings{}, err
	}
	if cmd.IsSet("region") {
		s.Region = cmd.String("region")
	}
	if cmd.IsSet("profile") {
		// An explicit profile beats keys from the environment.
		s.Profile = cmd.String("profile")
		s.AccessKeyID, s.SecretAccessKey, s.SessionToken = "", "", ""
	}
	return s, nil
}

// newEC2 builds the EC2 client for a command. Tests replace it.
var newEC2 = func(ctx context.Context, cmd *cli.Command, s aws.Settings) (instance.EC2, error) {
	opts := append(s.ConfigOptions(), aws.WithMaxAttempts(cmd.Int("max-attempts")))
	cfg, err := aws.LoadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Region == "" {
		return nil, errors.New("no AWS region: set AWS_DEFAULT_REGION or pass --region")
	}
	log.WithField("region", cfg.Region).Debug("ec2 client ready")
	return aws.NewEC2(cfg, aws.WithEC2Endpoint(cmd.String("endpoint"))), nil
}

// newController wires the EC2 client into an instance.Controller honoring
// --wait-timeout and --dry-run.
func newController(ctx context.Context, cmd *cli.Command, s aws.Settings) (*instance.Controller, error) {
	client, err := newEC2(ctx, cmd, s)
	if err != nil {
		return nil, err
	}
	ctl := instance.New(client)
	ctl.WaitTimeout = cmd.Duration("wait-timeout")
	ctl.DryRun = cmd.Bool("dry-run")
	return ctl, nil
}

// now and wait are swapped in tests. A nil wait uses the countdown.
var (
	now  = time.Now
	wait schedule.WaitFunc
)

// resolvePlan takes the launch and termination times from flags, prompting
// for whichever is missing. Termination is parsed relative to launch.
func resolvePlan(cmd *cli.Command, m meta.Meta) (schedule.Plan, error) {
	var (
		plan     schedule.Plan
		err      error
		prompted bool
		p        = prompt.New(m.Stdin, m.Stdout)
		ref      = now()
	)
	plan.Ref = ref

	if v := cmd.String("launch-at"); v != "" {
		if plan.Launch, err = clock.Parse(v, ref); err != nil {
			return plan, fmt.Errorf("--launch-at: %w", err)
		}
	} else {
		prompted = true
		if plan.Launch, err = p.AskTime("Launch time", ref); err != nil {
			return plan, err
		}
	}

	if v := cmd.String("terminate-at"); v != "" {
		if plan.Terminate, err = clock.Parse(v, plan.Launch); err != nil {
			return plan, fmt.Errorf("--terminate-at: %w", err)
		}
	} else {
		prompted = true
		if plan.Terminate, err = p.AskTime("Termination time", plan.Launch); err != nil {
			return plan, err
		}
	}

	if prompted && !cmd.Bool("yes") {
		fmt.Fprintf(m.Stdout, "Launch    %s (%s)\nTerminate %s (%s)\n",
			plan.Launch.Format(time.DateTime), humanize.Time(plan.Launch),
			plan.Terminate.Format(time.DateTime), humanize.Time(plan.Terminate))
		ok, err := p.Confirm("Proceed?")
		if err != nil {
			return plan, err
		}
		if !ok {
			return plan, ErrAborted
		}
	}

	return plan, nil
}

// newRunner maps the schedule flags onto a schedule.Runner.
func newRunner(cmd *cli.Command, m meta.Meta) *schedule.Runner {
	r := &schedule.Runner{
		Poll:            cmd.Duration("poll"),
		Countdown:       cmd.Bool("countdown"),
		Writer:          m.Stderr,
		DownOnInterrupt: cmd.Bool("down-on-interrupt"),
		DownTimeout:     cmd.Duration("wait-timeout") + time.Minute,
		Now:             now,
		Wait:            wait,
	}
	if r.Countdown && r.Poll == 0 {
		r.Poll = defaultPoll
	}
	return r
}
