package gmail

// Placeholder values used when a header is absent from a message.
const (
	NoSubject        = "(No subject)"
	UnknownSender    = "(Unknown sender)"
	UnknownRecipient = "(Unknown recipient)"
	UnknownDate      = "(Unknown date)"
)

// Message is an immutable snapshot of one email, produced by
// GetMessageDetails. The Date field keeps the remote header format and is
// never reparsed; InternalDate is Gmail's epoch-millisecond receive time and
// is the chronological marker for thread ordering.
type Message struct {
	ID              string   `json:"id"`
	ThreadID        string   `json:"thread_id"`
	Subject         string   `json:"subject"`
	From            string   `json:"from"`
	To              string   `json:"to"`
	Date            string   `json:"date"`
	Body            string   `json:"body"`
	IsHTML          bool     `json:"is_html"`
	MessageIDHeader string   `json:"message_id"`
	References      []string `json:"references"`
	InReplyTo       string   `json:"in_reply_to"`
	InternalDate    int64    `json:"internal_date"`
	LabelIDs        []string `json:"labelIds"`
}

// IsReply reports whether the message declares an In-Reply-To header.
func (m *Message) IsReply() bool {
	return m.InReplyTo != ""
}

// Metadata holds the header subset returned by a metadata-format fetch.
type Metadata struct {
	ID       string   `json:"id"`
	Subject  string   `json:"subject"`
	From     string   `json:"from"`
	Date     string   `json:"date"`
	LabelIDs []string `json:"labelIds"`
}
