// Package plugin provides sources and sinks that are not available with just
// iterators and entries. Splitting these out into their own, independent
// (except what's provided in pkg) packages means that they can be omitted in
// favor of a smaller build size if the functionality isn't needed.
//
// "Source" functions should take input and return an iterator.Iterator and
// potentially an error, and operate asynchronously. Sources should close any
// resources, like file handles or channels, and stop the associated goroutine
// when they have reached the end of their input.
//
// "Sink" functions should take an iterator.Iterator - and optionally other
// parameters - and operate synchronously (the user may decide to call a Sink
// function in a goroutine). Sink functions should use iterator.Drain on an
// iterator if they encounter an error to prevent upstream blocking.
//
//	Current Plugins:
//	- file provides line sources and a sink for files, including tail support.
//	- stdstream provides STDIN/STDOUT/STDERR streaming.
//	- store provides a SQLite source and sink for decoded events.
package plugin
