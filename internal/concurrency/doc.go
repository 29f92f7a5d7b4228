// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives for evserve: a synchronized cell and the scheduler
// family deciding how event handlers run.
//
//   - Fanout: a goroutine per task, unbounded, inline, or behind an admission gate.
//   - FixedPool: n long-lived workers sharing one FIFO queue.
//   - Multiplexer: a FixedPool that runs one step of a step task per pickup
//     and re-enqueues it round-robin until it is exhausted.
//
// Every scheduler recovers panics into *api.PanicError so a failing task
// never takes its worker down.
package concurrency
