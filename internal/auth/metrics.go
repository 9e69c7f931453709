// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for credential lifecycle metrics.
const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusExpired  = "expired"
	StatusNotFound = "not_found"
	StatusMissing  = "missing"
)

// LoginsTotal counts authentication attempts by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var loginsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "deskhive_logins_total",
		Help: "Total number of authentication attempts by outcome",
	},
	[]string{"status"},
)

// tokenVerificationsTotal counts request-time token verifications by outcome.
var tokenVerificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "deskhive_token_verifications_total",
		Help: "Total number of request-time token verifications by outcome",
	},
	[]string{"status"},
)

// passwordCommitsTotal counts successful password writes by flow.
var passwordCommitsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "deskhive_password_commits_total",
		Help: "Total number of persisted password changes by flow",
	},
	[]string{"flow"},
)

// tokensSweptTotal counts tokens removed by the expiry cleanup sweep.
var tokensSweptTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "deskhive_tokens_swept_total",
		Help: "Total number of expired tokens removed by the cleanup sweep",
	},
)

// RegisterMetrics registers auth package metrics with the given Prometheus
// registry. This must be called at startup to make metrics available on
// /metrics. Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(loginsTotal)
	reg.MustRegister(tokenVerificationsTotal)
	reg.MustRegister(passwordCommitsTotal)
	reg.MustRegister(tokensSweptTotal)
}
