// Package monitoring holds the process-wide logging hook.
package monitoring

import "log"

// Logf is the logger used across the repo. Defaults to log.Printf.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. Passing nil silences logging.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
