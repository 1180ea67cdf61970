// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ec2schedgo/internal/aws"
	"github.com/staranto/ec2schedgo/internal/envfile"
	"github.com/staranto/ec2schedgo/internal/instance"
	"github.com/staranto/ec2schedgo/internal/meta"
	"github.com/staranto/ec2schedgo/internal/schedule"
)

// launchSpec merges the EC2_* settings with the launch flags.
func launchSpec(cmd *cli.Command, s aws.Settings) instance.LaunchSpec {
	spec := instance.LaunchSpec{
		AMI:              s.AMI,
		InstanceType:     s.InstanceType,
		KeyName:          s.KeyName,
		SubnetID:         s.SubnetID,
		SecurityGroupIDs: s.SecurityGroupIDs,
		Name:             cmd.String("name"),
	}
	if cmd.IsSet("ami") {
		spec.AMI = cmd.String("ami")
	}
	if cmd.IsSet("instance-type") {
		spec.InstanceType = cmd.String("instance-type")
	}
	if cmd.IsSet("key-name") {
		spec.KeyName = cmd.String("key-name")
	}
	if cmd.IsSet("subnet") {
		spec.SubnetID = cmd.String("subnet")
	}
	if cmd.IsSet("security-groups") {
		spec.SecurityGroupIDs = cmd.StringSlice("security-groups")
	}
	return spec
}

// persistInstanceID returns the OnLaunch hook that records the new ID in the
// env file.
func persistInstanceID(path string) func(instance.Summary) error {
	return func(sum instance.Summary) error {
		if err := envfile.Set(path, aws.InstanceIDKey, sum.ID); err != nil {
			return err
		}
		log.WithFields(log.Fields{"file": path, "instance": sum.ID}).
			Infof("saved %s", aws.InstanceIDKey)
		return nil
	}
}

func LaunchCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args)

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	// Catch a bad spec now rather than after waiting for the launch time.
	spec := launchSpec(cmd, settings)
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("%w (set EC2_AMI_ID or pass --ami)", err)
	}

	plan, err := resolvePlan(cmd, m)
	if err != nil {
		return err
	}
	spec.TerminateAt = plan.Terminate

	ctl, err := newController(ctx, cmd, settings)
	if err != nil {
		return err
	}

	lc := &schedule.LaunchTerminate{Launcher: ctl, Spec: spec}
	if !cmd.Bool("no-persist") && !ctl.DryRun {
		lc.OnLaunch = persistInstanceID(envfile.Path(cmd.String("env-file")))
	}

	id, err := newRunner(cmd, m).Run(ctx, plan, lc)
	if err != nil {
		if id != "" {
			return fmt.Errorf("instance %s: %w", id, err)
		}
		return err
	}
	return nil
}

func LaunchCommandBuilder(meta meta.Meta) *cli.Command {
	flags := append(NewLaunchFlags("launch", meta.Config.Source), NewScheduleFlags("launch", meta.Config.Source)...)
	flags = append(flags, NewAWSFlags("launch", meta.Config.Source)...)

	cb := &CommandBuilder{
		Name:      "launch",
		Usage:     "launch a new instance and terminate it later",
		UsageText: "ec2sched launch [@set] [options]",
		Flags:     flags,
		Action:    LaunchCommandAction,
		Meta:      meta,
	}
	return cb.Build()
}
