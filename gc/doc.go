// ABOUTME: Package documentation for the collector core
// ABOUTME: Explains the handle/container model and the explicit lifecycle rules

// Package gc implements a precise, stop-the-world mark-and-sweep garbage
// collector for object graphs built by application code.
//
// Objects enter the collector's care through Make, which lays every object
// out as a header followed by the user value, so any raw object pointer can
// be validated and mapped back to its allocation in constant time. Ptr is
// the smart handle that makes objects reachable; Vec is a dynamically sized
// container of handles that participates in tracing as a single node.
//
// A handle or container constructed while a GC object's constructor runs is
// attributed to that object as a field and is traced through its owner.
// Constructed anywhere else (a local, a global, a field of an ordinary
// struct) it becomes a root and must be released with Drop. Collect frees
// every object unreachable from the root set, cycles included.
//
// All mutation of the object graph and the whole of Collect serialize on
// one process-wide reentrant lock; reads of a handle's target do not lock.
package gc
