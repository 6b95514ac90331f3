package suggest

import (
	"context"
	"log/slog"

	"github.com/teemow/replyd/internal/config"
	"github.com/teemow/replyd/internal/instrumentation"
	"github.com/teemow/replyd/internal/logging"
	"github.com/teemow/replyd/internal/ollama"
)

// selfReplySuggestions are returned when the user asks for suggestions on
// their own latest message in a thread. The generation backend is not
// consulted in that case.
var selfReplySuggestions = []string{
	"Did you mean to add more information to your previous message?",
	"Replying to your own message in a thread. Continue here or reply to the last message from the other party?",
	"Forward this thread?",
}

// Generator is the slice of the Ollama client the pipeline depends on.
type Generator interface {
	GenerateSuggestions(ctx context.Context, emailBody, threadContext string) (*ollama.Result, error)
}

// Pipeline orchestrates one suggestion request: fetch the message, build
// thread context for replies, and hand the result to the generation backend.
type Pipeline struct {
	source  MessageSource
	gen     Generator
	builder *contextBuilder
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewPipeline creates a suggestion pipeline.
func NewPipeline(source MessageSource, gen Generator, cfg config.SuggestConfig, logger *slog.Logger, metrics *instrumentation.Metrics) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithService(logger, "suggest")
	return &Pipeline{
		source: source,
		gen:    gen,
		builder: &contextBuilder{
			source:     source,
			truncChars: cfg.ContextTruncationChars,
			logger:     logger,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// SuggestReplies produces reply suggestions for the message. Not-found and
// backend failures surface as classified errors; a reply to the user's own
// message short-circuits to fixed suggestions without touching the backend.
func (p *Pipeline) SuggestReplies(ctx context.Context, messageID string) ([]string, error) {
	msg, err := p.source.GetMessageDetails(ctx, messageID)
	if err != nil {
		return nil, err
	}

	log := p.logger.With(logging.MessageID(messageID))

	threadContext := ""
	if msg.IsReply() {
		userEmail := p.source.GetUserEmail(ctx)

		if userEmail != "" && senderTag(msg.From, userEmail) == "You" {
			log.Info("reply to own message, returning self-reply suggestions",
				logging.UserHash(userEmail),
			)
			p.metrics.RecordSuggestionOutcome(ctx, instrumentation.OutcomeSelfReply)
			return append([]string(nil), selfReplySuggestions...), nil
		}

		threadContext = p.builder.build(ctx, msg, userEmail)
		if threadContext != "" {
			log.Info("built conversation context",
				logging.ThreadID(msg.ThreadID),
				slog.Int("context_chars", len(threadContext)),
			)
		}
	}

	result, err := p.gen.GenerateSuggestions(ctx, msg.Body, threadContext)
	if err != nil {
		p.metrics.RecordSuggestionOutcome(ctx, instrumentation.StatusError)
		return nil, err
	}

	outcome := instrumentation.OutcomeGenerated
	if result.Fallback {
		outcome = instrumentation.OutcomeFallback
	}
	p.metrics.RecordSuggestionOutcome(ctx, outcome)

	log.Info("suggestions ready",
		slog.Int("count", len(result.Suggestions)),
		logging.Status(logging.StatusSuccess),
	)
	return result.Suggestions, nil
}
