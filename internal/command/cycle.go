// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ec2schedgo/internal/aws"
	"github.com/staranto/ec2schedgo/internal/instance"
	"github.com/staranto/ec2schedgo/internal/meta"
	"github.com/staranto/ec2schedgo/internal/schedule"
)

func CycleCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args)

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	id := settings.InstanceID
	if cmd.Args().Len() > 0 {
		id = cmd.Args().First()
	}
	if id == "" {
		return fmt.Errorf("%w: pass one or set %s", instance.ErrNoInstance, aws.InstanceIDKey)
	}

	plan, err := resolvePlan(cmd, m)
	if err != nil {
		return err
	}

	ctl, err := newController(ctx, cmd, settings)
	if err != nil {
		return err
	}

	// Fail before the wait if the instance cannot be found.
	sum, err := ctl.Describe(ctx, id)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"instance": id, "state": sum.State}).Info("scheduling start/stop")

	_, err = newRunner(cmd, m).Run(ctx, plan, &schedule.StartStop{Cycler: ctl, InstanceID: id})
	return err
}

func CycleCommandBuilder(meta meta.Meta) *cli.Command {
	flags := append(NewScheduleFlags("cycle", meta.Config.Source), NewAWSFlags("cycle", meta.Config.Source)...)

	cb := &CommandBuilder{
		Name:      "cycle",
		Usage:     "start an existing instance and stop it later",
		UsageText: "ec2sched cycle [instance-id] [@set] [options]",
		Flags:     flags,
		Action:    CycleCommandAction,
		Meta:      meta,
	}
	return cb.Build()
}
