// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// ec2schedgo is the main package for the ec2sched command line tool. It loads
// the env file, wires the CLI and maps the outcome onto an exit code.
package main
