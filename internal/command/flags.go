// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ec2schedgo/internal/instance"
)

const (
	defaultPoll        = time.Second
	defaultMaxAttempts = 3
)

// configSources is the namespaced then global yaml lookup for a flag.
func configSources(ns, name, src string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(
		yaml.YAML(ns+"."+name, altsrc.StringSourcer(src)),
		yaml.YAML(name, altsrc.StringSourcer(src)),
	)
}

// NewOutputFlags are the rendering flags of status.
func NewOutputFlags(ns, src string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: configSources(ns, "color", src),
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.BoolFlag{
			Name:        "local",
			Aliases:     []string{"l"},
			Usage:       "show timestamps in local time",
			Sources:     configSources(ns, "local", src),
			HideDefault: true,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format (text, json, yaml, raw)",
			Sources: configSources(ns, "output", src),
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".sort", altsrc.StringSourcer(src)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: configSources(ns, "titles", src),
			Value:   true,
		},
	}
}

// NewAWSFlags select the account, region and endpoint. Unset values fall back
// to the AWS_* environment.
func NewAWSFlags(ns, src string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "region",
			Usage: "AWS region. Overrides AWS_DEFAULT_REGION",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "shared config profile. Overrides AWS_PROFILE",
		},
		&cli.StringFlag{
			Name:    "endpoint",
			Usage:   "EC2 endpoint URL, e.g. a LocalStack instance",
			Sources: configSources(ns, "endpoint", src),
		},
		&cli.IntFlag{
			Name:    "max-attempts",
			Usage:   "SDK retry attempts per API call",
			Sources: configSources(ns, "max-attempts", src),
			Value:   defaultMaxAttempts,
			Validator: func(value int) error {
				return FlagValidators(value, PositiveIntValidator)
			},
		},
	}
}

// NewScheduleFlags are shared by launch and cycle.
func NewScheduleFlags(ns, src string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "launch-at",
			Aliases: []string{"L"},
			Usage:   "launch time (9:30, 9:30pm, 21:30, +45m, now or a cron spec). Prompted when unset",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, TimeValidator)
			},
		},
		&cli.StringFlag{
			Name:    "terminate-at",
			Aliases: []string{"T"},
			Usage:   "termination time, relative to the launch time. Prompted when unset",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, TimeValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "countdown",
			Usage:   "render a live countdown while waiting",
			Sources: configSources(ns, "countdown", src),
			Value:   false,
		},
		&cli.DurationFlag{
			Name:    "poll",
			Usage:   "busy-poll interval while waiting. 0 sleeps once",
			Sources: configSources(ns, "poll", src),
		},
		&cli.DurationFlag{
			Name:    "wait-timeout",
			Usage:   "limit on each SDK state waiter",
			Sources: configSources(ns, "wait-timeout", src),
			Value:   instance.DefaultWaitTimeout,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Aliases:     []string{"n"},
			Usage:       "send every EC2 call with DryRun set",
			HideDefault: true,
		},
		&cli.BoolWithInverseFlag{
			Name:    "down-on-interrupt",
			Usage:   "bring the instance down when interrupted while it is up",
			Sources: configSources(ns, "down-on-interrupt", src),
			Value:   true,
		},
		&cli.BoolFlag{
			Name:        "yes",
			Aliases:     []string{"y"},
			Usage:       "do not ask for confirmation",
			HideDefault: true,
		},
	}
}

// NewLaunchFlags describe the instance launch creates. Unset values fall back
// to the EC2_* environment.
func NewLaunchFlags(ns, src string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "ami",
			Usage: "AMI ID. Overrides EC2_AMI_ID",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.StringFlag{
			Name:  "instance-type",
			Usage: "instance type. Overrides EC2_INSTANCE_TYPE",
		},
		&cli.StringFlag{
			Name:  "key-name",
			Usage: "key pair name. Overrides EC2_KEY_NAME",
		},
		&cli.StringFlag{
			Name:  "subnet",
			Usage: "subnet ID. Overrides EC2_SUBNET_ID",
		},
		&cli.StringSliceFlag{
			Name:  "security-groups",
			Usage: "security group IDs. Overrides EC2_SECURITY_GROUP_IDS",
		},
		&cli.StringFlag{
			Name:    "name",
			Usage:   "Name tag for the instance",
			Sources: configSources(ns, "name", src),
			Value:   "ec2sched",
		},
		&cli.BoolFlag{
			Name:        "no-persist",
			Usage:       "do not write EC2_INSTANCE_ID to the env file",
			HideDefault: true,
		},
	}
}

// NewEnvFileFlag is accepted by every command. main reads it before the app
// runs so the file can seed the environment.
func NewEnvFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "env-file",
		Aliases: []string{"e"},
		Usage:   "env file holding credentials and resource IDs",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("EC2SCHED_ENV_FILE"),
		),
		Value: ".env",
	}
}
