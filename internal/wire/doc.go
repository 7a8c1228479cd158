/*
Package wire defines the daemon's message union and the frame codecs
used on the RPC and pub/sub connections. Payloads are encoded as JSON
so unknown fields are simply dropped by older or newer peers; framing
uses length-prefixed parts so a reader never has to guess where one
frame ends and the next begins.
*/
package wire
