// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics, configuration snapshots and debug introspection for
// evserve.
//
// Provides:
//   - Prometheus collectors for events, schedulers and HTTP responses
//   - A snapshot store of the effective configuration
//   - Named debug probes
//   - A chi router exposing all of the above to operators
package control
