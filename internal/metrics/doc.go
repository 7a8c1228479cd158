/*
Package metrics exposes the daemon's Prometheus instrumentation: one
set of package-level collectors, registered once in init, covering the
dispatcher's message throughput, the eventbase's ring occupancy, and
the broker's connection counts.
*/
package metrics
