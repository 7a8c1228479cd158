/*
Package dispatcher implements the daemon's single-threaded reactor:
one goroutine processes every inbound role message, every timer tick,
and the shutdown signal, in the order they arrive, so the registry and
event base never need their own synchronization against dispatcher
mutation.
*/
package dispatcher
