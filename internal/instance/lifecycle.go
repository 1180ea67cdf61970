// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package instance

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// Start brings a stopped instance to running and waits for it. A running or
// pending instance is left alone.
func (c *Controller) Start(ctx context.Context, id string) (Summary, error) {
	ctxLog := log.WithField("instance", id)

	sum, err := c.Describe(ctx, id)
	if err != nil {
		return Summary{}, err
	}

	switch ec2types.InstanceStateName(sum.State) {
	case ec2types.InstanceStateNameRunning:
		ctxLog.Info("already running")
		return sum, nil
	case ec2types.InstanceStateNameTerminated, ec2types.InstanceStateNameShuttingDown:
		return sum, fmt.Errorf("%w: %s is %s", ErrTerminated, id, sum.State)
	case ec2types.InstanceStateNamePending:
		ctxLog.Info("already pending")
		if c.DryRun {
			ctxLog.Info("dry run: not waiting for running")
			return sum, nil
		}
	case ec2types.InstanceStateNameStopping:
		if c.DryRun {
			ctxLog.Info("dry run: would wait for stop to finish, then start")
			return sum, nil
		}
		ctxLog.Info("waiting for stop to finish")
		if err := c.waitStopped(ctx, id); err != nil {
			return sum, err
		}
		fallthrough
	default:
		ctxLog.Info("starting")
		_, err := c.ec2.StartInstances(ctx, &ec2.StartInstancesInput{
			InstanceIds: []string{id},
			DryRun:      aws.Bool(c.DryRun),
		})
		if c.DryRun && isDryRunOK(err) {
			ctxLog.Info("dry run: start would succeed")
			return sum, nil
		}
		if err != nil {
			return sum, fmt.Errorf("failed to start instance %s: %w", id, err)
		}
	}

	if err := c.waitRunning(ctx, id); err != nil {
		return sum, err
	}
	ctxLog.Info("running")
	return c.Describe(ctx, id)
}

// Stop brings an instance to stopped and waits for it.
func (c *Controller) Stop(ctx context.Context, id string) (Summary, error) {
	ctxLog := log.WithField("instance", id)

	sum, err := c.Describe(ctx, id)
	if err != nil {
		return Summary{}, err
	}

	switch ec2types.InstanceStateName(sum.State) {
	case ec2types.InstanceStateNameStopped:
		ctxLog.Info("already stopped")
		return sum, nil
	case ec2types.InstanceStateNameTerminated, ec2types.InstanceStateNameShuttingDown:
		return sum, fmt.Errorf("%w: %s is %s", ErrTerminated, id, sum.State)
	case ec2types.InstanceStateNameStopping:
		ctxLog.Info("already stopping")
		if c.DryRun {
			ctxLog.Info("dry run: not waiting for stopped")
			return sum, nil
		}
	default:
		ctxLog.Info("stopping")
		_, err := c.ec2.StopInstances(ctx, &ec2.StopInstancesInput{
			InstanceIds: []string{id},
			DryRun:      aws.Bool(c.DryRun),
		})
		if c.DryRun && isDryRunOK(err) {
			ctxLog.Info("dry run: stop would succeed")
			return sum, nil
		}
		if err != nil {
			return sum, fmt.Errorf("failed to stop instance %s: %w", id, err)
		}
	}

	if err := c.waitStopped(ctx, id); err != nil {
		return sum, err
	}
	ctxLog.Info("stopped")
	return c.Describe(ctx, id)
}

// Terminate ends an instance and waits until EC2 reports it terminated. An
// instance that is already gone is not an error.
func (c *Controller) Terminate(ctx context.Context, id string) error {
	ctxLog := log.WithField("instance", id)

	if id == "" {
		if c.DryRun {
			ctxLog.Info("dry run: nothing to terminate")
			return nil
		}
		return ErrNoInstance
	}

	sum, err := c.Describe(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		ctxLog.Warn("instance no longer exists")
		return nil
	case err != nil:
		return err
	}

	if ec2types.InstanceStateName(sum.State) == ec2types.InstanceStateNameTerminated {
		ctxLog.Info("already terminated")
		return nil
	}

	ctxLog.Info("terminating")
	_, err = c.ec2.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{id},
		DryRun:      aws.Bool(c.DryRun),
	})
	if c.DryRun && isDryRunOK(err) {
		ctxLog.Info("dry run: terminate would succeed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to terminate instance %s: %w", id, err)
	}

	if err := c.waitTerminated(ctx, id); err != nil {
		return err
	}
	ctxLog.Info("terminated")
	return nil
}
