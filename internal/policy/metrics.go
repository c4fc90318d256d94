// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package policy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for policy chain evaluation.
var (
	// policyRejections counts chain halts by rejecting policy.
	policyRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trailhead_policy_rejections_total",
		Help: "Total number of requests rejected by a visibility policy",
	}, []string{"policy"})

	// rosterCacheHits counts leader roster lookups served from cache.
	rosterCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trailhead_roster_cache_requests_total",
		Help: "Total number of unit roster lookups by cache outcome",
	}, []string{"outcome"})
)
