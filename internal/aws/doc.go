// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package aws loads SDK configuration and the credentials and resource
// identifiers ec2sched reads from the environment.
package aws
