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
)

// LaunchSpec describes the single instance RunInstances creates.
type LaunchSpec struct {
	AMI              string
	InstanceType     string
	KeyName          string
	SubnetID         string
	SecurityGroupIDs []string
	Name             string
	// TerminateAt, when set, is recorded as a tag on the instance.
	TerminateAt time.Time
	Tags        map[string]string
}

func (s LaunchSpec) Validate() error {
	if s.AMI == "" {
		return fmt.Errorf("%w: AMI ID is required", ErrInvalidSpec)
	}
	if s.InstanceType == "" {
		return fmt.Errorf("%w: instance type is required", ErrInvalidSpec)
	}
	return nil
}

func (s LaunchSpec) tags() []ec2types.Tag {
	tags := []ec2types.Tag{{Key: aws.String(TagManaged), Value: aws.String("true")}}
	if s.Name != "" {
		tags = append(tags, ec2types.Tag{Key: aws.String("Name"), Value: aws.String(s.Name)})
	}
	if !s.TerminateAt.IsZero() {
		tags = append(tags, ec2types.Tag{
			Key:   aws.String(TagTerminateAt),
			Value: aws.String(s.TerminateAt.UTC().Format(time.RFC3339)),
		})
	}
	for k, v := range s.Tags {
		tags = append(tags, ec2types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return tags
}

// Launch runs exactly one instance from spec and waits until it is running.
// If the waiter fails, the returned Summary still carries the new ID so the
// caller can clean up.
func (c *Controller) Launch(ctx context.Context, spec LaunchSpec) (Summary, error) {
	if err := spec.Validate(); err != nil {
		return Summary{}, err
	}

	input := &ec2.RunInstancesInput{
		ImageId:      aws.String(spec.AMI),
		InstanceType: ec2types.InstanceType(spec.InstanceType),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
		ClientToken:  aws.String(c.newToken()),
		DryRun:       aws.Bool(c.DryRun),
		TagSpecifications: []ec2types.TagSpecification{{
			ResourceType: ec2types.ResourceTypeInstance,
			Tags:         spec.tags(),
		}},
	}
	if spec.KeyName != "" {
		input.KeyName = aws.String(spec.KeyName)
	}
	if spec.SubnetID != "" {
		input.SubnetId = aws.String(spec.SubnetID)
	}
	if len(spec.SecurityGroupIDs) > 0 {
		input.SecurityGroupIds = spec.SecurityGroupIDs
	}

	ctxLog := log.WithFields(log.Fields{"ami": spec.AMI, "type": spec.InstanceType})
	ctxLog.Info("launching instance")

	out, err := c.ec2.RunInstances(ctx, input)
	if c.DryRun && isDryRunOK(err) {
		ctxLog.Info("dry run: launch would succeed")
		return Summary{State: "dry-run", Type: spec.InstanceType, Name: spec.Name}, nil
	}
	if err != nil {
		return Summary{}, fmt.Errorf("failed to run instance: %w", err)
	}
	if len(out.Instances) != 1 {
		return Summary{}, fmt.Errorf("expected 1 instance from RunInstances, got %d", len(out.Instances))
	}

	sum := summarize(out.Instances[0])
	ctxLog.WithField("instance", sum.ID).Info("waiting for instance to run")
	if err := c.waitRunning(ctx, sum.ID); err != nil {
		return sum, err
	}

	running, err := c.Describe(ctx, sum.ID)
	if err != nil {
		return sum, err
	}
	ctxLog.WithField("instance", running.ID).Info("running")
	return running, nil
}
