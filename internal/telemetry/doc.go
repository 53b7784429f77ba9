// Package telemetry holds the logging, metrics and tracing setup shared by
// the uikit commands.
//
// Metrics are registered on a caller-supplied prometheus.Registerer so that
// tests and repeated runs never share collectors. A nil *Metrics is valid and
// records nothing.
package telemetry
