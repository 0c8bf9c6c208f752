// Package pkg provides the core functionality of compiling log patterns and
// working with iterators over log entries.
//   - The hlp package compiles human-oriented log parser patterns into
//     executable parser functions.
//   - The iterator package contains functions for creating and altering the
//     behavior of an iterator.Iterator.
//   - The entries package contains functions related to an individual
//     entries.LogEntry.
//   - The msgrate package gates synchronization pushes at the system boundary.
package pkg
