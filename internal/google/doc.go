// Package google handles Google OAuth2 token storage and authenticated
// HTTP client construction for the Gmail service.
package google
