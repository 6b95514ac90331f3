package gmail

import (
	"context"
	"sync"
	"time"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/replyd/internal/logging"
)

// metadataHeaders is the header subset requested on metadata-format fetches.
var metadataHeaders = []string{"Subject", "From", "Date"}

// GetMessageMetadata fetches the header subset of one message without its
// body.
func (c *Client) GetMessageMetadata(ctx context.Context, messageID string) (*Metadata, error) {
	start := time.Now()
	msg, err := c.svc.Messages.Get("me", messageID).
		Format("metadata").
		MetadataHeaders(metadataHeaders...).
		Context(ctx).
		Do()
	c.record(ctx, "metadata", start, err)
	if err != nil {
		return nil, classifyAPIError(err, "failed to get message metadata "+messageID)
	}
	return metadataFromMessage(messageID, msg), nil
}

// GetMultipleMessagesMetadata fetches metadata for a set of messages. IDs
// are processed in chunks of the configured size; within a chunk each
// message is fetched concurrently, chunks run one after another. The result
// always contains an entry for every input ID; a failed fetch maps to nil
// instead of dropping the key or failing the whole call.
func (c *Client) GetMultipleMessagesMetadata(ctx context.Context, messageIDs []string) map[string]*Metadata {
	results := make(map[string]*Metadata, len(messageIDs))
	if len(messageIDs) == 0 {
		return results
	}

	chunkSize := c.cfg.MetadataChunkSize
	if chunkSize <= 0 {
		chunkSize = 15
	}

	var mu sync.Mutex
	for start := 0; start < len(messageIDs); start += chunkSize {
		end := start + chunkSize
		if end > len(messageIDs) {
			end = len(messageIDs)
		}

		var wg sync.WaitGroup
		for _, id := range messageIDs[start:end] {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				meta, err := c.GetMessageMetadata(ctx, id)
				if err != nil {
					c.logger.Warn("metadata fetch failed",
						logging.MessageID(id),
						logging.Err(err),
					)
					meta = nil
				}
				mu.Lock()
				results[id] = meta
				mu.Unlock()
			}(id)
		}
		wg.Wait()
	}

	return results
}

func metadataFromMessage(messageID string, msg *gmail.Message) *Metadata {
	var headers []*gmail.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}
	return &Metadata{
		ID:       messageID,
		Subject:  headerOrDefault(headers, "Subject", NoSubject),
		From:     headerOrDefault(headers, "From", UnknownSender),
		Date:     headerOrDefault(headers, "Date", UnknownDate),
		LabelIDs: msg.LabelIds,
	}
}
