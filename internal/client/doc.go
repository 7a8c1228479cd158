/*
Package client implements the downstream-facing session API: the
verb-per-method wrapper an instrumented application links against to
register actuators/scopes/sensors/slices, push events, and listen for
broadcast events and unsolicited actuate commands.

It also implements two behaviors carried over from the original C
downstream API that are otherwise only visible as environment
variables: per-sensor rate limiting and a NRM_TRANSMIT=0 no-op mode.
*/
package client
