// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package logger configures the process-wide zerolog logger: console
// output always, plus a size-rotated file when one is configured.
// Packages that need a logger take a zerolog.Logger value or use the
// global log.Logger.
package logger
