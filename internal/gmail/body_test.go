package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	gmail "google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name     string
		payload  *gmail.MessagePart
		wantBody string
		wantHTML bool
	}{
		{
			name:     "nil payload",
			payload:  nil,
			wantBody: "",
			wantHTML: false,
		},
		{
			name: "simple plain text",
			payload: &gmail.MessagePart{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: b64("hello")},
			},
			wantBody: "hello",
			wantHTML: false,
		},
		{
			name: "simple html",
			payload: &gmail.MessagePart{
				MimeType: "text/html",
				Body:     &gmail.MessagePartBody{Data: b64("<p>hi</p>")},
			},
			wantBody: "<p>hi</p>",
			wantHTML: true,
		},
		{
			name: "multipart alternative prefers html",
			payload: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "text/plain",
						Body:     &gmail.MessagePartBody{Data: b64("plain version")},
					},
					{
						MimeType: "text/html",
						Body:     &gmail.MessagePartBody{Data: b64("<b>html version</b>")},
					},
				},
			},
			wantBody: "<b>html version</b>",
			wantHTML: true,
		},
		{
			name: "first plain part wins over later plain parts",
			payload: &gmail.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "text/plain",
						Body:     &gmail.MessagePartBody{Data: b64("first")},
					},
					{
						MimeType: "text/plain",
						Body:     &gmail.MessagePartBody{Data: b64("second")},
					},
				},
			},
			wantBody: "first",
			wantHTML: false,
		},
		{
			name: "html found in nested multipart",
			payload: &gmail.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "multipart/alternative",
						Parts: []*gmail.MessagePart{
							{
								MimeType: "text/plain",
								Body:     &gmail.MessagePartBody{Data: b64("plain inner")},
							},
							{
								MimeType: "text/html",
								Body:     &gmail.MessagePartBody{Data: b64("<i>inner</i>")},
							},
						},
					},
				},
			},
			wantBody: "<i>inner</i>",
			wantHTML: true,
		},
		{
			name: "unknown mime type with content treated as plain",
			payload: &gmail.MessagePart{
				MimeType: "application/x-custom",
				Body:     &gmail.MessagePartBody{Data: b64("raw content")},
			},
			wantBody: "raw content",
			wantHTML: false,
		},
		{
			name: "attachment-only message has empty body",
			payload: &gmail.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "application/pdf",
						Body:     &gmail.MessagePartBody{AttachmentId: "att1"},
					},
				},
			},
			wantBody: "",
			wantHTML: false,
		},
		{
			name: "uppercase mime types are matched",
			payload: &gmail.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "TEXT/HTML",
						Body:     &gmail.MessagePartBody{Data: b64("<p>upper</p>")},
					},
				},
			},
			wantBody: "<p>upper</p>",
			wantHTML: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, isHTML := ExtractBody(tt.payload, 10)
			if body != tt.wantBody {
				t.Errorf("ExtractBody() body = %q, want %q", body, tt.wantBody)
			}
			if isHTML != tt.wantHTML {
				t.Errorf("ExtractBody() isHTML = %v, want %v", isHTML, tt.wantHTML)
			}
		})
	}
}

func TestExtractBodyDepthBound(t *testing.T) {
	// Nest one level deeper than the bound allows. The inner text is valid,
	// but the scan must abort and return the sentinel instead.
	const maxDepth = 3

	leaf := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: b64("buried")},
			},
		},
	}
	payload := leaf
	for i := 0; i < maxDepth+1; i++ {
		payload = &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Parts:    []*gmail.MessagePart{payload},
		}
	}

	body, isHTML := ExtractBody(payload, maxDepth)
	if body != SentinelTooComplex {
		t.Errorf("ExtractBody() body = %q, want %q", body, SentinelTooComplex)
	}
	if isHTML {
		t.Error("ExtractBody() isHTML = true, want false for too-complex sentinel")
	}

	// One level shallower decodes normally.
	body, _ = ExtractBody(payload, maxDepth+2)
	if body != "buried" {
		t.Errorf("ExtractBody() body = %q, want %q within depth bound", body, "buried")
	}
}

func TestDecodeBase64URL(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "padded input",
			data: base64.URLEncoding.EncodeToString([]byte("hello world")),
			want: "hello world",
		},
		{
			name: "unpadded input",
			data: strings.TrimRight(base64.URLEncoding.EncodeToString([]byte("hello")), "="),
			want: "hello",
		},
		{
			name: "invalid base64 yields sentinel",
			data: "!!not-base64!!",
			want: SentinelUndecodable,
		},
		{
			name: "latin-1 fallback",
			data: base64.URLEncoding.EncodeToString([]byte{0x63, 0x61, 0x66, 0xe9}), // "café" in Latin-1
			want: "café",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeBase64URL(tt.data); got != tt.want {
				t.Errorf("decodeBase64URL() = %q, want %q", got, tt.want)
			}
		})
	}
}
