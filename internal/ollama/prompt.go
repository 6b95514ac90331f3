package ollama

import (
	"fmt"
	"strings"
)

// contextPromptTemplate is used when thread context is available. %s
// receives the assembled conversation context, which already contains the
// current email.
const contextPromptTemplate = `System: You are a helpful assistant providing professional email reply suggestions. You are given a conversation thread and need to generate appropriate reply suggestions for the latest email.

CONVERSATION CONTEXT:
%s

Based on this conversation thread, generate exactly 3 short, concise reply suggestions. Format each suggestion as a numbered list (1., 2., 3.) with each suggestion on its own line. Keep each suggestion under 20 words and make them natural, conversational responses that make sense given the full context of who sent each message.

Your suggestions must be appropriate for the current conversational state and reflect a logical next message that the user would send.

Generate exactly 3, numbered suggestions for replying to this email:`

// buildPrompt formats the standalone template with the email body. Templates
// use a single %s placeholder; anything else in the template is passed
// through untouched.
func buildPrompt(template, emailBody string) string {
	if !strings.Contains(template, "%s") {
		return template + "\n\n" + emailBody
	}
	return fmt.Sprintf(template, emailBody)
}

// buildContextPrompt formats the conversation-aware template.
func buildContextPrompt(threadContext string) string {
	return fmt.Sprintf(contextPromptTemplate, threadContext)
}
