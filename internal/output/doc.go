// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output filters, sorts and renders instance listings as a table,
// JSON, YAML or the raw SDK document.
package output
