/*
Package role provides the per-participant facade over a broker:
client, controller, and sensor roles all speak the same Send/Recv/
Pub/Sub vocabulary, differing only in which side of the TCP
connections they sit on and which callbacks they register.
*/
package role
