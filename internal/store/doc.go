// Package store holds the two bounded, time-ordered collections that back
// every display of a serial session.
//
// # Collections
//
//	Logs     - every received line, newest first, capacity 50
//	History  - decoded sensor records, oldest first, capacity 100
//
// Both are fixed-size ring buffers. Appending to a full collection evicts
// its oldest element, so the store never grows and never fails.
//
// # Ownership
//
// A Store is constructed by the session root and injected into the device
// manager (the single writer) and any number of readers. Readers never see
// internal slices: Snapshot copies both collections under one read lock, so
// a reader observes either both collections cleared by ClearAll or neither.
//
// # Notification
//
// Subscribe hands out a coalescing signal channel. Display collaborators
// wait on it and pull a fresh Snapshot; there is no per-entry event stream.
//
//	ch, cancel := st.Subscribe()
//	defer cancel()
//	for range ch {
//		render(st.Snapshot())
//	}
//
// Close disposes of the store and closes every subscriber channel.
package store
