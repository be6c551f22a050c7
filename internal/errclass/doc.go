// Package errclass classifies failed sync attempts into error categories.
//
// Classification looks at the subprocess exit status first (timeouts and
// kill signals are network failures), then scans the captured output for
// category-indicative substrings in priority order. Anything unrecognized
// is Transient, the safest default: it is retried automatically and has
// the most lenient circuit threshold.
package errclass
