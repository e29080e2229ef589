// Package log wraps the standard library logger with named, leveled
// loggers.
//
// Each component asks for its own logger once and keeps it:
//
//	l := log.ForService("hn")
//	l.Infof("fetched %d hits for %q", n, term)
//	l.Debugf("GET %s", url) // only with --debug or EnableDebugFor("hn")
//
// Lines look like:
//
//	2025/01/02 15:04:05.000000 INFO [hn>] fetched 100 hits for "redux"
//
// Debug output can be enabled for everything with SetGlobalDebug or for a
// single logger with EnableDebugFor. SetOutput moves every logger to a new
// writer at once; tests point it at a bytes.Buffer and the terminal UI at a
// log file.
//
// The package name collides with the standard library on purpose. Alias
// one of them when both are needed.
package log
