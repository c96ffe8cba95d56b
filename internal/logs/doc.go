// Package logs reads the JSON log file that every mediadupe command appends
// to, so a past scan or detection can be inspected by run id or component.
//
// Reads are bounded: Last keeps a ring of the newest matching entries and
// Follow polls from a byte offset until its context ends.
package logs
