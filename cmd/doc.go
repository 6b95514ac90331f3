// Package cmd implements the replyd command line interface: the serve
// command running the API server, the auth command for the Google OAuth
// flow, and status/version helpers.
package cmd
