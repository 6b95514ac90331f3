// Package faults defines the error taxonomy shared by all replyd services.
//
// Every error that crosses a service boundary is classified into one of a
// small set of kinds (validation, not-found, transient, permanent, config,
// auth) so that callers can decide between retrying, failing the request,
// or failing the process without string-matching error messages.
package faults
