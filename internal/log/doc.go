/*
Package log wraps zerolog with the daemon's global logger and a small
set of component-scoped helpers, following the same shape as every
other long-lived goroutine in this codebase: one structured logger per
subsystem (broker, dispatcher, client, eventbase), configured once at
startup.
*/
package log
