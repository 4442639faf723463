// Package observability provides prometheus instrumentation for the
// polling loop: evaluation passes, rule triggers, transitions and the
// error counters that make a silent automation loop debuggable.
package observability
