package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/replyd/internal/faults"
	"github.com/teemow/replyd/internal/logging"
)

// SendEmail sends a plain-text email. When replyToID names an existing
// message, the outgoing mail carries In-Reply-To and References headers and
// is attached to that message's thread so Gmail groups the conversation.
func (c *Client) SendEmail(ctx context.Context, to, subject, body, replyToID string) (string, error) {
	if to == "" {
		return "", faults.New(faults.KindValidation, "recipient address is required")
	}
	if body == "" {
		return "", faults.New(faults.KindValidation, "message body is required")
	}

	var threadID string
	headers := []string{
		"To: " + to,
		"Subject: " + subject,
		"Content-Type: text/plain; charset=utf-8",
		"MIME-Version: 1.0",
	}

	if replyToID != "" {
		orig, err := c.GetMessageDetails(ctx, replyToID)
		if err != nil {
			return "", err
		}
		threadID = orig.ThreadID

		msgID := orig.MessageIDHeader
		if msgID == "" {
			// Synthesize a plausible ID so threading headers stay intact.
			msgID = fmt.Sprintf("<%s@mail.gmail.com>", replyToID)
		}
		refs := append(append([]string{}, orig.References...), msgID)
		headers = append(headers,
			"In-Reply-To: "+msgID,
			"References: "+strings.Join(refs, " "),
		)
	}

	raw := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	msg := &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString([]byte(raw)),
		ThreadId: threadID,
	}

	start := time.Now()
	sent, err := c.svc.Messages.Send("me", msg).Context(ctx).Do()
	c.record(ctx, "send", start, err)
	if err != nil {
		return "", classifyAPIError(err, "failed to send email")
	}

	c.logger.Info("email sent",
		logging.MessageID(sent.Id),
		logging.Domain(to),
	)
	return sent.Id, nil
}
