// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package instance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
)

// ec2mock keeps a tiny in-memory fleet. Every mutating call settles the
// instance into its final state so the SDK waiters succeed on their first
// poll.
type ec2mock struct {
	t *testing.T

	mu        sync.Mutex
	calledFn  map[string]int
	instances map[string]*ec2types.Instance
	failOn    map[string]error
	lastRun   *ec2.RunInstancesInput
	nextID    int

	// settle moves a transitional instance to its final state once it has
	// been described, so the next poll observes the change.
	settle map[string]ec2types.InstanceStateName
	// launchState, when set, is the state RunInstances leaves a new
	// instance in instead of running.
	launchState ec2types.InstanceStateName
}

func newEc2Mock(t *testing.T) *ec2mock {
	return &ec2mock{
		t:         t,
		calledFn:  map[string]int{},
		instances: map[string]*ec2types.Instance{},
		failOn:    map[string]error{},
		settle:    map[string]ec2types.InstanceStateName{},
	}
}

func (m *ec2mock) add(id string, state ec2types.InstanceStateName, tags ...ec2types.Tag) {
	m.instances[id] = &ec2types.Instance{
		InstanceId:   aws.String(id),
		InstanceType: ec2types.InstanceTypeT3Micro,
		State:        &ec2types.InstanceState{Name: state},
		LaunchTime:   aws.Time(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)),
		Tags:         tags,
	}
}

func (m *ec2mock) state(id string) ec2types.InstanceStateName {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.instances[id].State.Name
}

func (m *ec2mock) call(fn string) error {
	m.calledFn[fn]++
	return m.failOn[fn]
}

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

func dryRun(p *bool) error {
	if aws.ToBool(p) {
		return apiError("DryRunOperation")
	}
	return nil
}

func (m *ec2mock) DescribeInstances(_ context.Context, input *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("DescribeInstances"); err != nil {
		return nil, err
	}

	ids := input.InstanceIds
	if len(ids) == 0 {
		for id := range m.instances {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}

	var instances []ec2types.Instance
	for _, id := range ids {
		inst, ok := m.instances[id]
		if !ok {
			return nil, apiError("InvalidInstanceID.NotFound")
		}
		if !matches(*inst, input.Filters) {
			continue
		}
		instances = append(instances, *inst)
		if to, ok := m.settle[id]; ok {
			inst.State = &ec2types.InstanceState{Name: to}
			delete(m.settle, id)
		}
	}

	out := &ec2.DescribeInstancesOutput{}
	if len(instances) > 0 {
		out.Reservations = []ec2types.Reservation{{Instances: instances}}
	}
	return out, nil
}

func matches(inst ec2types.Instance, filters []ec2types.Filter) bool {
	for _, f := range filters {
		found := false
		for _, tag := range inst.Tags {
			if "tag:"+aws.ToString(tag.Key) == aws.ToString(f.Name) {
				for _, v := range f.Values {
					if v == aws.ToString(tag.Value) {
						found = true
					}
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m *ec2mock) transition(fn string, ids []string, dry *bool, to ec2types.InstanceStateName) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call(fn); err != nil {
		return err
	}
	if err := dryRun(dry); err != nil {
		return err
	}
	for _, id := range ids {
		inst, ok := m.instances[id]
		if !ok {
			return apiError("InvalidInstanceID.NotFound")
		}
		inst.State = &ec2types.InstanceState{Name: to}
	}
	return nil
}

func (m *ec2mock) StartInstances(_ context.Context, input *ec2.StartInstancesInput, _ ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error) {
	if err := m.transition("StartInstances", input.InstanceIds, input.DryRun, ec2types.InstanceStateNameRunning); err != nil {
		return nil, err
	}
	return &ec2.StartInstancesOutput{}, nil
}

func (m *ec2mock) StopInstances(_ context.Context, input *ec2.StopInstancesInput, _ ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	if err := m.transition("StopInstances", input.InstanceIds, input.DryRun, ec2types.InstanceStateNameStopped); err != nil {
		return nil, err
	}
	return &ec2.StopInstancesOutput{}, nil
}

func (m *ec2mock) TerminateInstances(_ context.Context, input *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	if err := m.transition("TerminateInstances", input.InstanceIds, input.DryRun, ec2types.InstanceStateNameTerminated); err != nil {
		return nil, err
	}
	return &ec2.TerminateInstancesOutput{}, nil
}

func (m *ec2mock) RunInstances(_ context.Context, input *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("RunInstances"); err != nil {
		return nil, err
	}
	m.lastRun = input
	if err := dryRun(input.DryRun); err != nil {
		return nil, err
	}

	m.nextID++
	id := fmt.Sprintf("i-%08d", m.nextID)
	var tags []ec2types.Tag
	for _, ts := range input.TagSpecifications {
		tags = append(tags, ts.Tags...)
	}
	m.instances[id] = &ec2types.Instance{
		InstanceId:   aws.String(id),
		ImageId:      input.ImageId,
		InstanceType: input.InstanceType,
		State:        &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
		Tags:         tags,
	}
	if m.launchState != "" {
		m.instances[id].State = &ec2types.InstanceState{Name: m.launchState}
	}

	pending := *m.instances[id]
	pending.State = &ec2types.InstanceState{Name: ec2types.InstanceStateNamePending}
	return &ec2.RunInstancesOutput{Instances: []ec2types.Instance{pending}}, nil
}
