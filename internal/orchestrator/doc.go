// Package orchestrator drives the agencyd task pipeline: context enrichment,
// delegation to the processing engine, conditional persistence, and response
// envelope assembly.
//
// The pipeline is sequential and synchronous within one ProcessTask call and
// holds no mutable state across calls; concurrent invocations are independent
// as long as the underlying capabilities are safe for concurrent use.
//
// Failure semantics are deliberately asymmetric: capability errors (context
// fetch, processing, persistence) propagate to the caller and fail that task
// invocation, while a semantic processing failure (the engine returns a
// not-OK result without an error) is captured into a success=false envelope.
package orchestrator
