// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/apex/log"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ec2schedgo/internal/attrs"
	"github.com/staranto/ec2schedgo/internal/meta"
	"github.com/staranto/ec2schedgo/internal/output"
)

func StatusCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args)

	list, err := BuildAttrs(cmd, attrs.DefaultSpec)
	if err != nil {
		return err
	}
	log.Debugf("attrs: %v", list.String())

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	managed := cmd.Bool("managed")
	if len(ids) == 0 && !managed {
		if settings.InstanceID == "" {
			managed = true
		} else {
			ids = []string{settings.InstanceID}
		}
	}

	ctl, err := newController(ctx, cmd, settings)
	if err != nil {
		return err
	}

	sums, err := ctl.List(ctx, ids, managed)
	if err != nil {
		return err
	}

	instances := make([]ec2types.Instance, 0, len(sums))
	for _, s := range sums {
		instances = append(instances, s.Instance)
	}
	raw, err := json.MarshalIndent(instances, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal instances: %w", err)
	}

	return output.SliceDiceSpit(m.Stdout, raw, list, output.OptionsFromCommand(cmd))
}

func StatusCommandBuilder(meta meta.Meta) *cli.Command {
	flags := append([]cli.Flag{
		&cli.BoolFlag{
			Name:        "managed",
			Aliases:     []string{"m"},
			Usage:       "list every instance launched by ec2sched",
			HideDefault: true,
		},
	}, NewOutputFlags("status", meta.Config.Source)...)
	flags = append(flags, NewAWSFlags("status", meta.Config.Source)...)

	cb := &CommandBuilder{
		Name:      "status",
		Usage:     "show instance state",
		UsageText: "ec2sched status [instance-id...] [options]",
		Flags:     flags,
		Action:    StatusCommandAction,
		Meta:      meta,
	}
	return cb.Build()
}
