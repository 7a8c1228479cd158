/*
Package state holds the daemon's authoritative entity registry: four
UUID-keyed tables (actuators, scopes, sensors, slices). The dispatcher
is the only writer in normal operation, but Tables is guarded by a
mutex so an embedder can safely read it from a second goroutine (for
example a metrics collector).
*/
package state
