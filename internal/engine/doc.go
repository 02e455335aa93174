// Package engine schedules asynchronous PubChem lookups onto a fixed pool of
// workers, tracks their lifecycle in a request store, and evicts stale
// terminal records on a periodic sweep.
package engine
