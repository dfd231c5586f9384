// Package domain contains the core domain entities and value objects for the
// batch-receive consumer.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (transport, timers, logging) and
// contains only pure data and business rules.
//
// # Entities
//
//   - [Message]: A single delivered message with identity, payload and
//     delivery metadata
//   - [Batch]: An ordered, finite group of messages handed to the
//     application as one unit
//   - [BatchReceivePolicy]: The bounds (count, bytes, wait time) governing
//     when a batch is complete
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical; BatchReceivePolicy is
//     only built through its builder and never mutated afterwards)
//   - Free of infrastructure dependencies
//   - Testable without mocks or external systems
package domain
