// Package provider implements the scheduled collection provider.
//
// On every tick the provider lists the remote collections, keeps those whose title
// matches one of the configured filters, lists their media and loads each one into
// the content cache. The Scheduler runs ticks in the background at a fixed rate or
// with a fixed delay and persists the outcome of each run.
//
// Consumers only read from the provider: Initialized gates startup, Count and
// Sample expose the cache contents.
package provider
