// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package hunt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the quest progression engine.
var (
	// questStarts counts StartOrResume calls by outcome.
	questStarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trailhead_quest_starts_total",
		Help: "Total number of quest start/resume attempts by outcome",
	}, []string{"outcome"})

	// foundReports counts accepted found-item reports.
	foundReports = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trailhead_found_reports_total",
		Help: "Total number of accepted found-item reports",
	})

	// questCompletions counts quest runs transitioning to completed.
	questCompletions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trailhead_quest_completions_total",
		Help: "Total number of quest runs marked completed",
	})

	// completionCheckFailures counts completion bookkeeping failures that
	// were swallowed and logged.
	completionCheckFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trailhead_completion_check_failures_total",
		Help: "Total number of completion checks that failed and were logged",
	})
)

// Start outcome label values.
const (
	startOutcomeStarted  = "started"
	startOutcomeResumed  = "resumed"
	startOutcomeDisabled = "disabled"
	startOutcomeExpired  = "expired"
	startOutcomeComplete = "completed"
)
