/*
Package types defines the daemon's entity model: the four UUID-keyed
kinds (actuators, scopes, sensors, slices) plus the event value the
eventbase accumulates.

These are plain data structs, not active objects — ownership and
lifecycle live in internal/state and internal/eventbase.
*/
package types
