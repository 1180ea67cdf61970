// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/ec2schedgo/internal/config"
)

const setsYAML = `launch:
  defaults:
    - --instance-type t3.small
    - --countdown
  gpu:
    - --instance-type g5.xlarge --name trainer
cycle:
  defaults: --poll 5s
`

func loadSets(t *testing.T, ns string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ec2sched.yaml")
	require.NoError(t, os.WriteFile(path, []byte(setsYAML), 0o600))
	t.Setenv("EC2SCHED_CFG", path)
	config.Config = config.Type{}
	t.Cleanup(func() { config.Config = config.Type{} })
	_, err := config.Load(ns)
	require.NoError(t, err)
}

func TestMangleArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "defaults inserted after command",
			args: []string{"ec2sched", "launch", "-T", "+1h"},
			want: []string{"ec2sched", "launch", "--instance-type", "t3.small", "--countdown", "-T", "+1h"},
		},
		{
			name: "named set replaces defaults in place",
			args: []string{"ec2sched", "launch", "-L", "now", "@gpu", "-T", "+1h"},
			want: []string{"ec2sched", "launch", "-L", "now", "--instance-type", "g5.xlarge", "--name", "trainer", "-T", "+1h"},
		},
		{
			name: "unknown set expands to nothing",
			args: []string{"ec2sched", "launch", "@nope", "-n"},
			want: []string{"ec2sched", "launch", "-n"},
		},
		{
			name: "cron descriptor is a value",
			args: []string{"ec2sched", "launch", "-L", "@daily", "-T", "+1h"},
			want: []string{"ec2sched", "launch", "--instance-type", "t3.small", "--countdown", "-L", "@daily", "-T", "+1h"},
		},
		{
			name: "help short-circuits",
			args: []string{"ec2sched", "launch", "@gpu", "-h"},
			want: []string{"ec2sched", "launch", "--help"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loadSets(t, "launch")
			assert.Equal(t, tt.want, mangleArguments(tt.args))
		})
	}
}

func TestMangleArguments_ScalarSet(t *testing.T) {
	loadSets(t, "cycle")
	got := mangleArguments([]string{"ec2sched", "cycle", "i-0abc"})
	assert.Equal(t, []string{"ec2sched", "cycle", "--poll", "5s", "i-0abc"}, got)
}

func TestMangleArguments_LeavesRootFlagsAlone(t *testing.T) {
	loadSets(t, "")
	args := []string{"ec2sched", "--version"}
	assert.Equal(t, args, mangleArguments(args))
}

func TestEnvFileArg(t *testing.T) {
	assert.Equal(t, "", envFileArg([]string{"ec2sched", "launch"}))
	assert.Equal(t, "prod.env", envFileArg([]string{"ec2sched", "launch", "-e", "prod.env"}))
	assert.Equal(t, "a.env", envFileArg([]string{"ec2sched", "status", "--env-file=a.env"}))
	assert.Equal(t, "", envFileArg([]string{"ec2sched", "status", "--env-file"}))
}
