// Package app wires the engine together for one editing session.
//
// A Session owns the text buffer, the suggestion lifecycle manager, and the
// rewrite session, and exposes the splice primitives and callback hooks a
// host UI binds to. Every buffer mutation triggers a reconciliation pass so
// the overlay the host renders is never out of date.
package app
