// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
)

// fakeEC2 settles every transition immediately so the state waiters return
// on their first poll.
type fakeEC2 struct {
	mu        sync.Mutex
	calls     []string
	instances map[string]*ec2types.Instance
	nextID    int
}

func newFakeEC2() *fakeEC2 {
	return &fakeEC2{instances: map[string]*ec2types.Instance{}}
}

func (f *fakeEC2) add(id string, state ec2types.InstanceStateName, name string, managed bool) {
	tags := []ec2types.Tag{{Key: aws.String("Name"), Value: aws.String(name)}}
	if managed {
		tags = append(tags, ec2types.Tag{Key: aws.String("ec2sched:managed"), Value: aws.String("true")})
	}
	f.instances[id] = &ec2types.Instance{
		InstanceId:   aws.String(id),
		InstanceType: ec2types.InstanceTypeT3Micro,
		State:        &ec2types.InstanceState{Name: state},
		LaunchTime:   aws.Time(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)),
		Tags:         tags,
	}
}

func (f *fakeEC2) count(fn string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == fn {
			n++
		}
	}
	return n
}

func (f *fakeEC2) state(id string) ec2types.InstanceStateName {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instances[id].State.Name
}

func notFound() error {
	return &smithy.GenericAPIError{Code: "InvalidInstanceID.NotFound", Message: "not found"}
}

func dryRunErr(p *bool) error {
	if aws.ToBool(p) {
		return &smithy.GenericAPIError{Code: "DryRunOperation", Message: "would have succeeded"}
	}
	return nil
}

func (f *fakeEC2) DescribeInstances(_ context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "DescribeInstances")

	ids := in.InstanceIds
	if len(ids) == 0 {
		for id := range f.instances {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}

	var out []ec2types.Instance
	for _, id := range ids {
		inst, ok := f.instances[id]
		if !ok {
			return nil, notFound()
		}
		if len(in.Filters) > 0 && !hasManagedTag(inst) {
			continue
		}
		out = append(out, *inst)
	}

	res := &ec2.DescribeInstancesOutput{}
	if len(out) > 0 {
		res.Reservations = []ec2types.Reservation{{Instances: out}}
	}
	return res, nil
}

func hasManagedTag(inst *ec2types.Instance) bool {
	for _, t := range inst.Tags {
		if aws.ToString(t.Key) == "ec2sched:managed" {
			return true
		}
	}
	return false
}

func (f *fakeEC2) move(fn string, ids []string, dry *bool, to ec2types.InstanceStateName) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fn)
	if err := dryRunErr(dry); err != nil {
		return err
	}
	for _, id := range ids {
		inst, ok := f.instances[id]
		if !ok {
			return notFound()
		}
		inst.State = &ec2types.InstanceState{Name: to}
	}
	return nil
}

func (f *fakeEC2) StartInstances(_ context.Context, in *ec2.StartInstancesInput, _ ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error) {
	return &ec2.StartInstancesOutput{}, f.move("StartInstances", in.InstanceIds, in.DryRun, ec2types.InstanceStateNameRunning)
}

func (f *fakeEC2) StopInstances(_ context.Context, in *ec2.StopInstancesInput, _ ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	return &ec2.StopInstancesOutput{}, f.move("StopInstances", in.InstanceIds, in.DryRun, ec2types.InstanceStateNameStopped)
}

func (f *fakeEC2) TerminateInstances(_ context.Context, in *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	return &ec2.TerminateInstancesOutput{}, f.move("TerminateInstances", in.InstanceIds, in.DryRun, ec2types.InstanceStateNameTerminated)
}

func (f *fakeEC2) RunInstances(_ context.Context, in *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "RunInstances")
	if err := dryRunErr(in.DryRun); err != nil {
		return nil, err
	}

	f.nextID++
	id := fmt.Sprintf("i-%08d", f.nextID)
	var tags []ec2types.Tag
	for _, ts := range in.TagSpecifications {
		tags = append(tags, ts.Tags...)
	}
	f.instances[id] = &ec2types.Instance{
		InstanceId:   aws.String(id),
		ImageId:      in.ImageId,
		InstanceType: in.InstanceType,
		State:        &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
		Tags:         tags,
	}
	return &ec2.RunInstancesOutput{Instances: []ec2types.Instance{{
		InstanceId: aws.String(id),
		State:      &ec2types.InstanceState{Name: ec2types.InstanceStateNamePending},
	}}}, nil
}
