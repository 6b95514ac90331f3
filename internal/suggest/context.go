package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/teemow/replyd/internal/gmail"
	"github.com/teemow/replyd/internal/logging"
)

const (
	contextHeader           = "Previous messages in this conversation:\n\n"
	contextTruncationMarker = "... [message truncated]"

	// maxContextMessages bounds how many preceding thread messages are
	// included before the current one.
	maxContextMessages = 2
)

// MessageSource is the slice of the Gmail client the suggestion pipeline
// depends on.
type MessageSource interface {
	ListMessages(ctx context.Context, labelID, threadID string, maxResults int64) ([]string, error)
	GetMessageDetails(ctx context.Context, messageID string) (*gmail.Message, error)
	GetUserEmail(ctx context.Context) string
}

// contextBuilder assembles the conversation context for reply messages.
type contextBuilder struct {
	source     MessageSource
	truncChars int
	logger     *slog.Logger
}

// build returns the thread context for msg, or empty when no context
// applies: the message is not a reply, has no thread, is the first message
// of its thread, or cannot be located in it. Failures fetching individual
// thread messages are logged and skipped.
func (b *contextBuilder) build(ctx context.Context, msg *gmail.Message, userEmail string) string {
	if !msg.IsReply() || msg.ThreadID == "" {
		return ""
	}

	ids, err := b.source.ListMessages(ctx, "", msg.ThreadID, 100)
	if err != nil {
		b.logger.Warn("failed to list thread messages",
			logging.ThreadID(msg.ThreadID),
			logging.Err(err),
		)
		return ""
	}
	if len(ids) == 0 {
		return ""
	}

	thread := make([]*gmail.Message, 0, len(ids))
	for _, id := range ids {
		if id == msg.ID {
			thread = append(thread, msg)
			continue
		}
		detail, err := b.source.GetMessageDetails(ctx, id)
		if err != nil {
			b.logger.Warn("skipping unreadable thread message",
				logging.MessageID(id),
				logging.Err(err),
			)
			continue
		}
		thread = append(thread, detail)
	}

	sort.SliceStable(thread, func(i, j int) bool {
		return thread[i].InternalDate < thread[j].InternalDate
	})

	position := -1
	for i, m := range thread {
		if m.ID == msg.ID {
			position = i
			break
		}
	}
	if position <= 0 {
		// First message of the thread, or not found at all.
		return ""
	}

	from := position - maxContextMessages
	if from < 0 {
		from = 0
	}
	preceding := thread[from:position]

	var sb strings.Builder
	sb.WriteString(contextHeader)
	for i, m := range preceding {
		fmt.Fprintf(&sb, "------- Message %d -------\n", i+1)
		b.writeMessage(&sb, m, userEmail)
	}
	sb.WriteString("------- Current Email -------\n")
	b.writeMessage(&sb, msg, userEmail)

	return sb.String()
}

func (b *contextBuilder) writeMessage(sb *strings.Builder, m *gmail.Message, userEmail string) {
	fmt.Fprintf(sb, "From: %s (%s)\n", m.From, senderTag(m.From, userEmail))
	fmt.Fprintf(sb, "%s\n\n", truncateContextBody(m.Body, b.truncChars))
}

// senderTag labels a message author relative to the authenticated user.
func senderTag(from, userEmail string) string {
	if userEmail != "" && strings.Contains(from, userEmail) {
		return "You"
	}
	return "Other party"
}

func truncateContextBody(body string, maxChars int) string {
	if maxChars <= 0 || len(body) <= maxChars {
		return body
	}
	return body[:maxChars] + contextTruncationMarker
}
