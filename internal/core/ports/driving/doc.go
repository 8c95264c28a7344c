// Package driving defines the interfaces through which the host
// application drives the search subsystem.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The UI layer calls Coordinator to start, filter and cancel searches and
// to convert results into redactions; it implements Listener to receive
// incrementally published result snapshots.
package driving
