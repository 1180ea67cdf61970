// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package schedule

import (
	"context"
	"errors"

	"github.com/apex/log"

	"github.com/staranto/ec2schedgo/internal/instance"
)

// Lifecycle brings an instance up at launch and down at termination.
type Lifecycle interface {
	Up(ctx context.Context) (string, error)
	Down(ctx context.Context, id string) error
	Name() string
}

// Launcher is satisfied by *instance.Controller.
type Launcher interface {
	Launch(ctx context.Context, spec instance.LaunchSpec) (instance.Summary, error)
	Terminate(ctx context.Context, id string) error
}

// Cycler is satisfied by *instance.Controller.
type Cycler interface {
	Start(ctx context.Context, id string) (instance.Summary, error)
	Stop(ctx context.Context, id string) (instance.Summary, error)
}

// LaunchTerminate creates a fresh instance and destroys it.
type LaunchTerminate struct {
	Launcher Launcher
	Spec     instance.LaunchSpec
	// OnLaunch runs after the instance is running. A failure is logged and
	// does not abort the run.
	OnLaunch func(instance.Summary) error
}

func (lt *LaunchTerminate) Name() string { return "launch/terminate" }

func (lt *LaunchTerminate) Up(ctx context.Context) (string, error) {
	sum, err := lt.Launcher.Launch(ctx, lt.Spec)
	if err != nil {
		return sum.ID, err
	}
	if lt.OnLaunch != nil && sum.ID != "" {
		if err := lt.OnLaunch(sum); err != nil {
			log.WithField("instance", sum.ID).Warnf("post-launch hook failed: %v", err)
		}
	}
	return sum.ID, nil
}

func (lt *LaunchTerminate) Down(ctx context.Context, id string) error {
	return lt.Launcher.Terminate(ctx, id)
}

// StartStop starts an existing instance and stops it again.
type StartStop struct {
	Cycler     Cycler
	InstanceID string
}

func (ss *StartStop) Name() string { return "start/stop" }

func (ss *StartStop) Up(ctx context.Context) (string, error) {
	if ss.InstanceID == "" {
		return "", instance.ErrNoInstance
	}
	if _, err := ss.Cycler.Start(ctx, ss.InstanceID); err != nil {
		// The instance may already be starting, so hand back its ID for
		// cleanup unless it cannot be started at all.
		if errors.Is(err, instance.ErrNotFound) || errors.Is(err, instance.ErrTerminated) {
			return "", err
		}
		return ss.InstanceID, err
	}
	return ss.InstanceID, nil
}

func (ss *StartStop) Down(ctx context.Context, id string) error {
	_, err := ss.Cycler.Stop(ctx, id)
	return err
}
