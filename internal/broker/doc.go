/*
Package broker implements the transport layer underneath a role: one
TCP connection (or listener) for RPC request/reply traffic, and a
second for pub/sub fan-out. Callers never touch net.Conn directly —
they drive a Broker through a small control vocabulary (send, pub,
sub, term) and receive inbound traffic through callbacks invoked from
the broker's own event loop.
*/
package broker
