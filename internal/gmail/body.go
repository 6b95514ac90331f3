package gmail

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	gmail "google.golang.org/api/gmail/v1"
)

// Sentinel bodies returned when a payload cannot be decoded normally.
const (
	// SentinelTooComplex replaces the body when part nesting exceeds the
	// recursion bound.
	SentinelTooComplex = "(Email structure too complex to parse)"

	// SentinelUndecodable replaces the body when the transport encoding
	// cannot be decoded.
	SentinelUndecodable = "(Could not decode message body)"
)

// bodyScan accumulates the first plain and first HTML body found while
// walking a payload tree. First-found wins; later parts of the same kind
// are ignored.
type bodyScan struct {
	plain    string
	html     string
	hasPlain bool
	hasHTML  bool
}

func (s *bodyScan) setPlain(text string) {
	if !s.hasPlain {
		s.plain = text
		s.hasPlain = true
	}
}

func (s *bodyScan) setHTML(text string) {
	if !s.hasHTML {
		s.html = text
		s.hasHTML = true
	}
}

// ExtractBody walks a message payload tree and returns the body text and
// whether it was HTML. HTML always wins over plain text when both exist.
// If nesting anywhere in the tree exceeds maxDepth the scan aborts and the
// too-complex sentinel is returned with isHTML false, regardless of what
// was accumulated.
func ExtractBody(payload *gmail.MessagePart, maxDepth int) (body string, isHTML bool) {
	scan, tooComplex := scanParts(payload, 0, maxDepth)
	if tooComplex {
		return SentinelTooComplex, false
	}
	if scan.hasHTML {
		return scan.html, true
	}
	if scan.hasPlain {
		return scan.plain, false
	}
	return "", false
}

// scanParts is the bounded recursion behind ExtractBody. The boolean result
// tags the scan as aborted-too-complex; when true the bodyScan must be
// discarded.
func scanParts(part *gmail.MessagePart, depth, maxDepth int) (bodyScan, bool) {
	var scan bodyScan

	if depth > maxDepth {
		return bodyScan{}, true
	}
	if part == nil {
		return scan, false
	}

	// Case 1: content directly on this node. An unknown MIME type with
	// content is assumed to be plain text.
	if part.Body != nil && part.Body.Data != "" {
		data := decodeBase64URL(part.Body.Data)
		switch strings.ToLower(part.MimeType) {
		case "text/plain":
			scan.setPlain(data)
		case "text/html":
			scan.setHTML(data)
		default:
			if data != "" {
				scan.setPlain(data)
			}
		}
	}

	// Case 2: multipart node. Leaf children record the first occurrence of
	// each kind; container children recurse one level deeper and merge
	// under the same first-found rule.
	for _, child := range part.Parts {
		mimeType := strings.ToLower(child.MimeType)
		hasData := child.Body != nil && child.Body.Data != ""

		switch {
		case mimeType == "text/plain" && hasData:
			if !scan.hasPlain {
				scan.setPlain(decodeBase64URL(child.Body.Data))
			}
		case mimeType == "text/html" && hasData:
			if !scan.hasHTML {
				scan.setHTML(decodeBase64URL(child.Body.Data))
			}
		case len(child.Parts) > 0 || strings.HasPrefix(mimeType, "multipart/"):
			nested, tooComplex := scanParts(child, depth+1, maxDepth)
			if tooComplex {
				return bodyScan{}, true
			}
			if nested.hasHTML {
				scan.setHTML(nested.html)
			}
			if nested.hasPlain {
				scan.setPlain(nested.plain)
			}
		}
	}

	return scan, false
}

// decodeBase64URL decodes Gmail's URL-safe base64 body encoding. The input
// is padded to a multiple of 4 before decoding since the API strips padding.
// Decoded bytes are interpreted as UTF-8, falling back to Latin-1; a decode
// failure yields the undecodable sentinel rather than an error.
func decodeBase64URL(data string) string {
	if m := len(data) % 4; m != 0 {
		data += strings.Repeat("=", 4-m)
	}

	raw, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		return SentinelUndecodable
	}

	if utf8.Valid(raw) {
		return string(raw)
	}

	// Latin-1: every byte maps directly to the code point of the same value.
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}
