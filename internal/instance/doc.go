// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package instance drives the EC2 lifecycle calls ec2sched needs: describe,
// start, stop, launch and terminate a single instance, blocking on the SDK
// waiters for each state transition.
package instance
