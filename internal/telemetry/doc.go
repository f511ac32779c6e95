// Package telemetry holds the process-wide, init-once bootstrap of the
// bridge's telemetry: the Prometheus build info collector, app info and
// pre-populated label sets, and the optional /metrics listener.
//
// main calls Bootstrap before creating the dispatcher and treats an error
// as fatal. Repeated calls are harmless and report AlreadyInitialized.
package telemetry
