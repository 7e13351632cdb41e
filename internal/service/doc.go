// Package service defines the analysis/rewrite backend boundary.
//
// The engine never performs language analysis itself; it consumes suggestion
// and rewrite results from an external service and manages their spatial and
// lifecycle correctness against the live buffer. This package holds the wire
// types for that contract, the Service interface the rest of the engine
// depends on, and the HTTP client implementation.
//
// Offsets in service responses are character indices into the text snapshot
// that was sent with the request, and only that snapshot. Mapping them onto
// the live buffer is the reconcile package's job.
package service
