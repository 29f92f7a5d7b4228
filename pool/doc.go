// Package pool
// Author: momentics <momentics@gmail.com>
//
// Reusable buffers for evserve: a generic sync.Pool wrapper and a fixed-size
// byte pool used for datagram receive buffers and file transfer chunks.
package pool
