package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/replyd/internal/config"
	"github.com/teemow/replyd/internal/faults"
	"github.com/teemow/replyd/internal/google"
	"github.com/teemow/replyd/internal/instrumentation"
	"github.com/teemow/replyd/internal/logging"
)

// Client wraps the Gmail Users service.
type Client struct {
	svc     *gmail.UsersService
	cfg     config.GmailConfig
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewClient creates a Gmail client authenticated with the stored OAuth token.
func NewClient(ctx context.Context, cfg config.GmailConfig, logger *slog.Logger, metrics *instrumentation.Metrics) (*Client, error) {
	httpClient, err := google.GetHTTPClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found: %w", err)
	}
	httpClient.Timeout = cfg.APITimeout()

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, faults.Wrap(faults.KindConfig, err, "failed to create Gmail service")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		svc:     svc.Users,
		cfg:     cfg,
		logger:  logging.WithService(logger, "gmail"),
		metrics: metrics,
	}, nil
}

// newClientForTest builds a client against a preconfigured service, used by
// tests that point the Gmail service at an httptest server.
func newClientForTest(svc *gmail.Service, cfg config.GmailConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{svc: svc.Users, cfg: cfg, logger: logger}
}

// record reports one API call to the metrics recorder. Safe on a nil
// recorder.
func (c *Client) record(ctx context.Context, operation string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGmailOperation(ctx, operation, status, time.Since(start))
}

// ListMessages lists message IDs, optionally filtered by label or thread.
func (c *Client) ListMessages(ctx context.Context, labelID, threadID string, maxResults int64) ([]string, error) {
	start := time.Now()
	call := c.svc.Messages.List("me").MaxResults(maxResults).Context(ctx)
	if labelID != "" {
		call = call.LabelIds(labelID)
	}
	if threadID != "" {
		call = call.Q("threadId:" + threadID)
	}

	res, err := call.Do()
	c.record(ctx, "list", start, err)
	if err != nil {
		return nil, classifyAPIError(err, "failed to list messages")
	}

	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}

	c.logger.Debug("listed messages", slog.Int("count", len(ids)), slog.String("label", labelID))
	return ids, nil
}

// GetMessageDetails retrieves the full details of a message, including the
// decoded body.
func (c *Client) GetMessageDetails(ctx context.Context, messageID string) (*Message, error) {
	start := time.Now()
	msg, err := c.svc.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	c.record(ctx, "get", start, err)
	if err != nil {
		return nil, classifyAPIError(err, fmt.Sprintf("failed to get message %s", messageID))
	}

	body, isHTML := ExtractBody(msg.Payload, c.cfg.MaxRecursionDepth)

	var headers []*gmail.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}

	return &Message{
		ID:              messageID,
		ThreadID:        msg.ThreadId,
		Subject:         headerOrDefault(headers, "Subject", NoSubject),
		From:            headerOrDefault(headers, "From", UnknownSender),
		To:              headerOrDefault(headers, "To", UnknownRecipient),
		Date:            headerOrDefault(headers, "Date", UnknownDate),
		Body:            body,
		IsHTML:          isHTML,
		MessageIDHeader: extractMessageIDHeader(headers),
		References:      extractReferences(headers),
		InReplyTo:       findHeader(headers, "In-Reply-To"),
		InternalDate:    msg.InternalDate,
		LabelIDs:        msg.LabelIds,
	}, nil
}

// GetUserEmail returns the authenticated user's email address, or empty if
// the profile cannot be retrieved. Profile failures are not fatal; callers
// degrade to not recognizing the user's own messages.
func (c *Client) GetUserEmail(ctx context.Context) string {
	profile, err := c.svc.GetProfile("me").Context(ctx).Do()
	if err != nil {
		c.logger.Warn("failed to get user profile", logging.Err(err))
		return ""
	}
	return profile.EmailAddress
}

// ArchiveMessage archives a message by removing the INBOX label.
func (c *Client) ArchiveMessage(ctx context.Context, messageID string) error {
	start := time.Now()
	_, err := c.svc.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"INBOX"},
	}).Context(ctx).Do()
	c.record(ctx, "modify", start, err)
	if err != nil {
		return classifyAPIError(err, fmt.Sprintf("failed to archive message %s", messageID))
	}
	c.logger.Info("message archived", logging.MessageID(messageID))
	return nil
}

// TrashMessage moves a message to the trash.
func (c *Client) TrashMessage(ctx context.Context, messageID string) error {
	start := time.Now()
	_, err := c.svc.Messages.Trash("me", messageID).Context(ctx).Do()
	c.record(ctx, "trash", start, err)
	if err != nil {
		return classifyAPIError(err, fmt.Sprintf("failed to trash message %s", messageID))
	}
	c.logger.Info("message trashed", logging.MessageID(messageID))
	return nil
}

// ModifyLabels adds and/or removes labels on a message. At least one label
// change must be specified.
func (c *Client) ModifyLabels(ctx context.Context, messageID string, addLabels, removeLabels []string) error {
	if len(addLabels) == 0 && len(removeLabels) == 0 {
		return faults.New(faults.KindValidation, "at least one of addLabels or removeLabels must be specified")
	}

	start := time.Now()
	_, err := c.svc.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		AddLabelIds:    addLabels,
		RemoveLabelIds: removeLabels,
	}).Context(ctx).Do()
	c.record(ctx, "modify", start, err)
	if err != nil {
		return classifyAPIError(err, fmt.Sprintf("failed to modify labels on message %s", messageID))
	}
	c.logger.Info("labels modified", logging.MessageID(messageID))
	return nil
}

// findHeader performs a case-insensitive lookup for a header value.
func findHeader(headers []*gmail.MessagePartHeader, name string) string {
	lower := strings.ToLower(name)
	for _, h := range headers {
		if strings.ToLower(h.Name) == lower {
			return h.Value
		}
	}
	return ""
}

func headerOrDefault(headers []*gmail.MessagePartHeader, name, fallback string) string {
	if v := findHeader(headers, name); v != "" {
		return v
	}
	return fallback
}

// extractMessageIDHeader returns the Message-ID header, normalized to carry
// angle brackets.
func extractMessageIDHeader(headers []*gmail.MessagePartHeader) string {
	id := findHeader(headers, "Message-ID")
	if id != "" && !(strings.HasPrefix(id, "<") && strings.HasSuffix(id, ">")) {
		id = "<" + id + ">"
	}
	return id
}

// extractReferences splits the References header into individual message IDs.
func extractReferences(headers []*gmail.MessagePartHeader) []string {
	refs := findHeader(headers, "References")
	if refs == "" {
		return nil
	}
	return strings.Fields(refs)
}

// classifyAPIError maps a Gmail API error onto the fault taxonomy. 404 is
// not-found, 401/403 are auth, 429 and 5xx are transient, other HTTP
// statuses are permanent, and anything without a status (network, timeout)
// is transient.
func classifyAPIError(err error, msg string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusNotFound:
			return faults.Wrap(faults.KindNotFound, err, msg)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return faults.Wrap(faults.KindAuth, err, msg).WithCode(apiErr.Code)
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500:
			return faults.Wrap(faults.KindTransient, err, msg)
		default:
			return faults.Wrap(faults.KindPermanent, err, msg)
		}
	}
	return faults.Wrap(faults.KindTransient, err, msg)
}
