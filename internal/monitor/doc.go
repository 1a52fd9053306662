// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package monitor holds the runtime watchdogs and telemetry projections run
// alongside a live session.
//
// Timer-driven monitors take a Scheduler so that tests can drive them with
// a ManualScheduler instead of real timers. Each monitor serializes its own
// callbacks; callbacks are invoked without internal locks held.
package monitor
