// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package instance

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/google/uuid"
)

const (
	// TagManaged marks instances launched by ec2sched.
	TagManaged = "ec2sched:managed"
	// TagTerminateAt records the scheduled termination time (RFC3339).
	TagTerminateAt = "ec2sched:terminate-at"

	DefaultWaitTimeout = 10 * time.Minute
)

// Summary is the flattened view of an instance most callers need. Instance
// keeps the full SDK value for output.
type Summary struct {
	ID         string
	Name       string
	State      string
	Type       string
	PublicIP   string
	PrivateIP  string
	LaunchTime time.Time
	Instance   ec2types.Instance
}

// Controller issues lifecycle calls against one EC2 client.
type Controller struct {
	ec2 EC2

	// WaitTimeout bounds every SDK waiter.
	WaitTimeout time.Duration
	// DryRun sends every mutating call with DryRun set and skips waiters.
	DryRun bool
	// WaitMinDelay and WaitMaxDelay override the waiters' polling backoff
	// when non-zero.
	WaitMinDelay time.Duration
	WaitMaxDelay time.Duration

	newToken func() string
}

func New(client EC2) *Controller {
	return &Controller{
		ec2:         client,
		WaitTimeout: DefaultWaitTimeout,
		newToken:    func() string { return uuid.New().String() },
	}
}

// Describe returns the instance with the given ID. Unknown or malformed IDs
// yield ErrNotFound.
func (c *Controller) Describe(ctx context.Context, id string) (Summary, error) {
	if id == "" {
		return Summary{}, ErrNoInstance
	}

	out, err := c.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{id},
	})
	if err != nil {
		if isNotFound(err) {
			return Summary{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Summary{}, fmt.Errorf("failed to describe instance %s: %w", id, err)
	}

	if len(out.Reservations) == 0 || len(out.Reservations[0].Instances) == 0 {
		return Summary{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if len(out.Reservations) != 1 || len(out.Reservations[0].Instances) != 1 {
		return Summary{}, fmt.Errorf("expected exactly 1 instance for %s, got %d reservations", id, len(out.Reservations))
	}

	return summarize(out.Reservations[0].Instances[0]), nil
}

// List pages through DescribeInstances. With no IDs and managedOnly set it
// returns every instance tagged by ec2sched in the region.
func (c *Controller) List(ctx context.Context, ids []string, managedOnly bool) ([]Summary, error) {
	input := &ec2.DescribeInstancesInput{InstanceIds: ids}
	if managedOnly {
		input.Filters = []ec2types.Filter{{
			Name:   aws.String("tag:" + TagManaged),
			Values: []string{"true"},
		}}
	}

	var results []Summary
	pager := ec2.NewDescribeInstancesPaginator(c.ec2, input)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("%w: %v", ErrNotFound, ids)
			}
			return nil, fmt.Errorf("failed to list instances: %w", err)
		}
		for _, r := range page.Reservations {
			for _, i := range r.Instances {
				results = append(results, summarize(i))
			}
		}
	}

	log.Debugf("listed %d instance(s)", len(results))
	return results, nil
}

func summarize(i ec2types.Instance) Summary {
	s := Summary{
		ID:        aws.ToString(i.InstanceId),
		Type:      string(i.InstanceType),
		PublicIP:  aws.ToString(i.PublicIpAddress),
		PrivateIP: aws.ToString(i.PrivateIpAddress),
		Instance:  i,
	}
	if i.State != nil {
		s.State = string(i.State.Name)
	}
	if i.LaunchTime != nil {
		s.LaunchTime = *i.LaunchTime
	}
	for _, t := range i.Tags {
		if aws.ToString(t.Key) == "Name" {
			s.Name = aws.ToString(t.Value)
		}
	}
	return s
}

func (c *Controller) describeInput(id string) *ec2.DescribeInstancesInput {
	return &ec2.DescribeInstancesInput{InstanceIds: []string{id}}
}

func (c *Controller) waitTimeout() time.Duration {
	if c.WaitTimeout <= 0 {
		return DefaultWaitTimeout
	}
	return c.WaitTimeout
}

func (c *Controller) waitRunning(ctx context.Context, id string) error {
	w := ec2.NewInstanceRunningWaiter(c.ec2, func(o *ec2.InstanceRunningWaiterOptions) {
		if c.WaitMinDelay > 0 {
			o.MinDelay = c.WaitMinDelay
		}
		if c.WaitMaxDelay > 0 {
			o.MaxDelay = c.WaitMaxDelay
		}
	})
	if err := w.Wait(ctx, c.describeInput(id), c.waitTimeout()); err != nil {
		return fmt.Errorf("failed waiting for %s to run: %w", id, err)
	}
	return nil
}

func (c *Controller) waitStopped(ctx context.Context, id string) error {
	w := ec2.NewInstanceStoppedWaiter(c.ec2, func(o *ec2.InstanceStoppedWaiterOptions) {
		if c.WaitMinDelay > 0 {
			o.MinDelay = c.WaitMinDelay
		}
		if c.WaitMaxDelay > 0 {
			o.MaxDelay = c.WaitMaxDelay
		}
	})
	if err := w.Wait(ctx, c.describeInput(id), c.waitTimeout()); err != nil {
		return fmt.Errorf("failed waiting for %s to stop: %w", id, err)
	}
	return nil
}

func (c *Controller) waitTerminated(ctx context.Context, id string) error {
	w := ec2.NewInstanceTerminatedWaiter(c.ec2, func(o *ec2.InstanceTerminatedWaiterOptions) {
		if c.WaitMinDelay > 0 {
			o.MinDelay = c.WaitMinDelay
		}
		if c.WaitMaxDelay > 0 {
			o.MaxDelay = c.WaitMaxDelay
		}
	})
	if err := w.Wait(ctx, c.describeInput(id), c.waitTimeout()); err != nil {
		return fmt.Errorf("failed waiting for %s to terminate: %w", id, err)
	}
	return nil
}
