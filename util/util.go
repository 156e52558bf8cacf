// Package util has logging switches.
package util

import "log"

// Logging turns on the chattiest internal logging, like a line for
// every hook that runs.
//
// Components have their own Verbose switches for everything else.
var Logging = false

// Logf calls log.Printf if Logging is true.
func Logf(format string, args ...interface{}) {
	if !Logging {
		return
	}
	log.Printf(format, args...)
}

// Vlogf calls log.Printf with the prefix prepended to the format if
// verbose is true.
func Vlogf(verbose bool, prefix, format string, args ...interface{}) {
	if !verbose {
		return
	}
	log.Printf(prefix+format, args...)
}
