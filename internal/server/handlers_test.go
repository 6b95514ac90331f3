package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/replyd/internal/config"
	"github.com/teemow/replyd/internal/faults"
	"github.com/teemow/replyd/internal/gmail"
	"github.com/teemow/replyd/internal/ollama"
)

type fakeMailbox struct {
	messages map[string]*gmail.Message
	metadata map[string]*gmail.Metadata
	listIDs  []string
	listErr  error

	archived []string
	trashed  []string
	modified map[string][][]string
	sentID   string
}

func (f *fakeMailbox) ListMessages(_ context.Context, _, _ string, _ int64) ([]string, error) {
	return f.listIDs, f.listErr
}

func (f *fakeMailbox) GetMessageDetails(_ context.Context, id string) (*gmail.Message, error) {
	if msg, ok := f.messages[id]; ok {
		return msg, nil
	}
	return nil, faults.Newf(faults.KindNotFound, "message %s not found", id)
}

func (f *fakeMailbox) GetMultipleMessagesMetadata(_ context.Context, ids []string) map[string]*gmail.Metadata {
	out := make(map[string]*gmail.Metadata, len(ids))
	for _, id := range ids {
		out[id] = f.metadata[id] // nil for unknown, as the real fetcher does
	}
	return out
}

func (f *fakeMailbox) ArchiveMessage(_ context.Context, id string) error {
	f.archived = append(f.archived, id)
	return nil
}

func (f *fakeMailbox) TrashMessage(_ context.Context, id string) error {
	f.trashed = append(f.trashed, id)
	return nil
}

func (f *fakeMailbox) ModifyLabels(_ context.Context, id string, add, remove []string) error {
	if f.modified == nil {
		f.modified = make(map[string][][]string)
	}
	f.modified[id] = [][]string{add, remove}
	return nil
}

func (f *fakeMailbox) SendEmail(_ context.Context, to, _, _, _ string) (string, error) {
	if to == "reject@example.com" {
		return "", faults.New(faults.KindTransient, "gmail unavailable")
	}
	f.sentID = "sent-1"
	return f.sentID, nil
}

type fakeSuggester struct {
	suggestions []string
	err         error
}

func (f *fakeSuggester) SuggestReplies(_ context.Context, _ string) ([]string, error) {
	return f.suggestions, f.err
}

type fakeProber struct {
	info ollama.StatusInfo
}

func (f *fakeProber) Status(_ context.Context) ollama.StatusInfo {
	return f.info
}

func newTestServer(mailbox *fakeMailbox, suggester *fakeSuggester, prober *fakeProber) *Server {
	cfg := config.Config{}
	cfg.App.MaxEmailsFetch = 50
	cfg.Server.Addr = ":0"

	if prober == nil {
		prober = &fakeProber{}
	}
	srv := NewServer(cfg, mailbox, suggester, prober, func() bool { return true }, slog.Default(), nil)
	srv.health.SetReady(true)
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleListEmails(t *testing.T) {
	mailbox := &fakeMailbox{
		listIDs: []string{"m1", "m2", "m3"},
		metadata: map[string]*gmail.Metadata{
			"m1": {ID: "m1", Subject: "First"},
			// m2 fails its metadata fetch
			"m3": {ID: "m3", Subject: "Third"},
		},
	}
	srv := newTestServer(mailbox, &fakeSuggester{}, nil)

	rec := doRequest(t, srv, http.MethodGet, "/emails", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var emails []gmail.Metadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &emails))
	require.Len(t, emails, 2)
	assert.Equal(t, "m1", emails[0].ID)
	assert.Equal(t, "m3", emails[1].ID)
}

func TestHandleListEmailsInvalidMaxResults(t *testing.T) {
	srv := newTestServer(&fakeMailbox{}, &fakeSuggester{}, nil)

	rec := doRequest(t, srv, http.MethodGet, "/emails?maxResults=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHandleGetEmail(t *testing.T) {
	mailbox := &fakeMailbox{
		messages: map[string]*gmail.Message{
			"m1": {ID: "m1", Subject: "Hello", Body: "body text"},
		},
	}
	srv := newTestServer(mailbox, &fakeSuggester{}, nil)

	rec := doRequest(t, srv, http.MethodGet, "/emails/m1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var msg gmail.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "Hello", msg.Subject)
}

func TestHandleGetEmailNotFound(t *testing.T) {
	srv := newTestServer(&fakeMailbox{}, &fakeSuggester{}, nil)

	rec := doRequest(t, srv, http.MethodGet, "/emails/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSuggestions(t *testing.T) {
	suggester := &fakeSuggester{
		suggestions: []string{"Sounds good", "Let me check and get back to you"},
	}
	srv := newTestServer(&fakeMailbox{}, suggester, nil)

	rec := doRequest(t, srv, http.MethodGet, "/emails/m1/suggestions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp suggestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, suggester.suggestions, resp.Suggestions)
}

func TestHandleSuggestionsBackendDown(t *testing.T) {
	suggester := &fakeSuggester{
		err: faults.New(faults.KindTransient, "ollama service not reachable"),
	}
	srv := newTestServer(&fakeMailbox{}, suggester, nil)

	rec := doRequest(t, srv, http.MethodGet, "/emails/m1/suggestions", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleSendEmail(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid request",
			body:       `{"to":"a@example.com","subject":"Hi","body":"Hello there"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing recipient",
			body:       `{"subject":"Hi","body":"Hello"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing subject",
			body:       `{"to":"a@example.com","body":"Hello"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing body",
			body:       `{"to":"a@example.com","subject":"Hi"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "upstream failure",
			body:       `{"to":"reject@example.com","subject":"Hi","body":"Hello"}`,
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeMailbox{}, &fakeSuggester{}, nil)
			rec := doRequest(t, srv, http.MethodPost, "/emails/send", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleArchiveAndDelete(t *testing.T) {
	mailbox := &fakeMailbox{}
	srv := newTestServer(mailbox, &fakeSuggester{}, nil)

	rec := doRequest(t, srv, http.MethodPost, "/emails/m1/archive", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"m1"}, mailbox.archived)

	rec = doRequest(t, srv, http.MethodDelete, "/emails/m2/delete", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"m2"}, mailbox.trashed)
}

func TestHandleModify(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		check      func(t *testing.T, mailbox *fakeMailbox)
	}{
		{
			name:       "label change",
			body:       `{"addLabelIds":["STARRED"],"removeLabelIds":["INBOX"]}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, mailbox *fakeMailbox) {
				require.Contains(t, mailbox.modified, "m1")
				assert.Equal(t, []string{"STARRED"}, mailbox.modified["m1"][0])
				assert.Equal(t, []string{"INBOX"}, mailbox.modified["m1"][1])
			},
		},
		{
			name:       "trash action",
			body:       `{"action":"trash"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, mailbox *fakeMailbox) {
				assert.Equal(t, []string{"m1"}, mailbox.trashed)
			},
		},
		{
			name:       "archive action",
			body:       `{"action":"archive"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, mailbox *fakeMailbox) {
				assert.Equal(t, []string{"m1"}, mailbox.archived)
			},
		},
		{
			name:       "no changes",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown action",
			body:       `{"action":"bounce"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailbox := &fakeMailbox{}
			srv := newTestServer(mailbox, &fakeSuggester{}, nil)

			rec := doRequest(t, srv, http.MethodPost, "/emails/m1/modify", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.check != nil {
				tt.check(t, mailbox)
			}
		})
	}
}

func TestHandleStatus(t *testing.T) {
	prober := &fakeProber{
		info: ollama.StatusInfo{
			Running:        true,
			ModelAvailable: true,
			Model:          "llama3",
			Models:         []string{"llama3"},
		},
	}
	srv := newTestServer(&fakeMailbox{}, &fakeSuggester{}, prober)

	rec := doRequest(t, srv, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "running", resp.Backend)
	assert.True(t, resp.GmailAuthenticated)
	assert.Equal(t, "active", resp.AIServiceStatus)
	assert.Equal(t, "llama3", resp.Model)
}

func TestHandleStatusBackendDown(t *testing.T) {
	srv := newTestServer(&fakeMailbox{}, &fakeSuggester{}, &fakeProber{})

	rec := doRequest(t, srv, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "inactive", resp.AIServiceStatus)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(&fakeMailbox{}, &fakeSuggester{}, nil)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	srv.health.SetReady(false)
	rec = doRequest(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
