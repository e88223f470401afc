// Package tui is a terminal view of live KNXnet/IP traffic: per-service
// counters above a scrolling list of the most recent frames.
package tui
