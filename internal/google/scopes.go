package google

import (
	gmail "google.golang.org/api/gmail/v1"
)

// Scopes returns the OAuth scopes replyd requests. Only Gmail access is
// needed; the mail.google.com scope covers read, send, and label changes.
func Scopes() []string {
	return []string{
		gmail.MailGoogleComScope,
	}
}
