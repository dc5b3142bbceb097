// Package installer wraps the Codewind installer CLI (cwctl). It is the
// install status source for the lifecycle manager and runs the long
// install/start/stop/uninstall operations and template listing.
//
// All commands go through a Runner so tests can substitute canned output.
// Failures are classified into ErrIO, ErrTimeout and ErrMalformed; use
// errors.Is or the IsX helpers to distinguish them.
package installer
