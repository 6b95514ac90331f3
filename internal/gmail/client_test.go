package gmail

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/replyd/internal/config"
	"github.com/teemow/replyd/internal/faults"
)

func TestFindHeader(t *testing.T) {
	headers := []*gmail.MessagePartHeader{
		{Name: "Subject", Value: "Hello"},
		{Name: "FROM", Value: "a@example.com"},
		{Name: "in-reply-to", Value: "<parent@example.com>"},
	}

	tests := []struct {
		name   string
		lookup string
		want   string
	}{
		{name: "exact case", lookup: "Subject", want: "Hello"},
		{name: "lookup lowercase", lookup: "subject", want: "Hello"},
		{name: "header uppercase", lookup: "From", want: "a@example.com"},
		{name: "header lowercase", lookup: "In-Reply-To", want: "<parent@example.com>"},
		{name: "absent header", lookup: "References", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findHeader(headers, tt.lookup); got != tt.want {
				t.Errorf("findHeader(%q) = %q, want %q", tt.lookup, got, tt.want)
			}
		})
	}
}

func TestExtractMessageIDHeader(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "already bracketed", value: "<abc@example.com>", want: "<abc@example.com>"},
		{name: "bare id gets brackets", value: "abc@example.com", want: "<abc@example.com>"},
		{name: "absent", value: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers []*gmail.MessagePartHeader
			if tt.value != "" {
				headers = []*gmail.MessagePartHeader{{Name: "Message-ID", Value: tt.value}}
			}
			if got := extractMessageIDHeader(headers); got != tt.want {
				t.Errorf("extractMessageIDHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractReferences(t *testing.T) {
	headers := []*gmail.MessagePartHeader{
		{Name: "References", Value: "<a@x.com> <b@x.com>\t<c@x.com>"},
	}
	refs := extractReferences(headers)
	want := []string{"<a@x.com>", "<b@x.com>", "<c@x.com>"}
	if len(refs) != len(want) {
		t.Fatalf("extractReferences() = %v, want %v", refs, want)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("refs[%d] = %q, want %q", i, refs[i], want[i])
		}
	}

	if got := extractReferences(nil); got != nil {
		t.Errorf("extractReferences(nil) = %v, want nil", got)
	}
}

func TestModifyLabelsValidation(t *testing.T) {
	c := &Client{logger: slog.Default()}

	err := c.ModifyLabels(context.Background(), "msg123", nil, nil)
	if err == nil {
		t.Fatal("ModifyLabels() with no labels succeeded, want validation error")
	}
	if !faults.IsValidation(err) {
		t.Errorf("ModifyLabels() error kind = %v, want validation", faults.KindOf(err))
	}
}

func TestSendEmailValidation(t *testing.T) {
	tests := []struct {
		name string
		to   string
		body string
	}{
		{name: "missing recipient", to: "", body: "hi"},
		{name: "missing body", to: "a@example.com", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{logger: slog.Default()}
			_, err := c.SendEmail(context.Background(), tt.to, "Subject", tt.body, "")
			if err == nil {
				t.Fatal("SendEmail() succeeded, want validation error")
			}
			if !faults.IsValidation(err) {
				t.Errorf("SendEmail() error kind = %v, want validation", faults.KindOf(err))
			}
		})
	}
}

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want faults.Kind
	}{
		{
			name: "404 is not found",
			err:  &googleapi.Error{Code: http.StatusNotFound},
			want: faults.KindNotFound,
		},
		{
			name: "401 is auth",
			err:  &googleapi.Error{Code: http.StatusUnauthorized},
			want: faults.KindAuth,
		},
		{
			name: "429 is transient",
			err:  &googleapi.Error{Code: http.StatusTooManyRequests},
			want: faults.KindTransient,
		},
		{
			name: "503 is transient",
			err:  &googleapi.Error{Code: http.StatusServiceUnavailable},
			want: faults.KindTransient,
		},
		{
			name: "400 is permanent",
			err:  &googleapi.Error{Code: http.StatusBadRequest},
			want: faults.KindPermanent,
		},
		{
			name: "plain network error is transient",
			err:  errors.New("connection refused"),
			want: faults.KindTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyAPIError(tt.err, "op failed")
			if faults.KindOf(got) != tt.want {
				t.Errorf("classifyAPIError() kind = %v, want %v", faults.KindOf(got), tt.want)
			}
		})
	}
}

func TestGetMessageDetailsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
	}))
	t.Cleanup(srv.Close)

	svc, err := gmail.NewService(context.Background(),
		option.WithoutAuthentication(),
		option.WithEndpoint(srv.URL),
	)
	if err != nil {
		t.Fatalf("failed to create test service: %v", err)
	}
	c := newClientForTest(svc, config.GmailConfig{MetadataChunkSize: 15, MaxRecursionDepth: 10}, slog.Default())

	_, err = c.GetMessageDetails(context.Background(), "missing")
	if err == nil {
		t.Fatal("GetMessageDetails() succeeded, want not-found error")
	}
	if !faults.IsNotFound(err) {
		t.Errorf("GetMessageDetails() error kind = %v, want not_found", faults.KindOf(err))
	}
}
