/*
Package eventbase accumulates per-(sensor, scope) event series in two
bounded ring buffers: current holds raw samples since the last period
close, past holds one aggregated value per closed period. Pushing past
the current ring's capacity collapses its contents into a single
summed sample before the new one is appended; closing a period sums
the current ring into past and clears it.

This mirrors the original C eventbase's new_period/add_event pair
exactly, down to the timestamp each aggregate carries.
*/
package eventbase
