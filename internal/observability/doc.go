// Package observability provides the structured logger and the Prometheus
// metrics used by the reservation agent.
//
// Every evaluation records its decision, the finding of each evaluator, and
// the outcome of any reasoning substrate call. HTTP traffic is counted per
// route and status.
package observability
