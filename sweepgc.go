// ABOUTME: Main sweepgc package providing version information and package documentation
// ABOUTME: This is the root package for the embeddable tracing garbage collector

// Package sweepgc provides an embeddable, precise mark-and-sweep garbage
// collector for Go programs that manage object lifetimes by hand. It offers
// smart handles (gc.Ptr) and handle containers (gc.Vec) for building
// arbitrary object graphs, including cycles, plus snapshot-based heap
// introspection (graph) and debug dumps (dump).
package sweepgc

// Version is the semantic version of the sweepgc library
const Version = "0.1.0-dev"
