// Package logging provides slog attribute helpers shared across replyd.
//
// The helpers keep attribute names consistent between packages and make it
// hard to accidentally log raw email addresses: callers use UserHash or
// Domain instead of the address itself.
package logging
