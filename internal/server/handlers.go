package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/teemow/replyd/internal/faults"
	"github.com/teemow/replyd/internal/gmail"
	"github.com/teemow/replyd/internal/logging"
)

// errorResponse is the JSON shape every failed request carries.
type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := faults.HTTPStatus(err)
	if status >= 500 {
		s.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			logging.Err(err),
		)
	} else {
		s.logger.Warn("request rejected",
			slog.String("path", r.URL.Path),
			logging.Err(err),
		)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: status})
}

// handleListEmails lists message metadata for a label. Failed metadata
// fetches are dropped from the response rather than failing the listing.
func (s *Server) handleListEmails(w http.ResponseWriter, r *http.Request) {
	labelID := r.URL.Query().Get("labelId")
	if labelID == "" {
		labelID = "INBOX"
	}

	maxResults := s.cfg.App.MaxEmailsFetch
	if raw := r.URL.Query().Get("maxResults"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			s.writeError(w, r, faults.Newf(faults.KindValidation, "invalid maxResults %q", raw))
			return
		}
		maxResults = parsed
	}

	ids, err := s.mailbox.ListMessages(r.Context(), labelID, "", maxResults)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	emails := make([]*gmail.Metadata, 0, len(ids))
	if len(ids) > 0 {
		metadata := s.mailbox.GetMultipleMessagesMetadata(r.Context(), ids)
		for _, id := range ids {
			if meta := metadata[id]; meta != nil {
				emails = append(emails, meta)
			}
		}
	}

	writeJSON(w, http.StatusOK, emails)
}

func (s *Server) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	msg, err := s.mailbox.GetMessageDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.suggester.SuggestReplies(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{Suggestions: suggestions})
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	ReplyTo string `json:"reply_to"`
}

type actionResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"message_id,omitempty"`
}

func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, faults.Wrap(faults.KindValidation, err, "invalid request body"))
		return
	}
	if req.To == "" {
		s.writeError(w, r, faults.New(faults.KindValidation, "recipient (to) is required"))
		return
	}
	if req.Subject == "" {
		s.writeError(w, r, faults.New(faults.KindValidation, "subject is required"))
		return
	}
	if req.Body == "" {
		s.writeError(w, r, faults.New(faults.KindValidation, "message body is required"))
		return
	}

	id, err := s.mailbox.SendEmail(r.Context(), req.To, req.Subject, req.Body, req.ReplyTo)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{
		Success:   true,
		Message:   "Email sent successfully",
		MessageID: id,
	})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.mailbox.ArchiveMessage(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{
		Success:   true,
		Message:   "Email archived successfully",
		MessageID: id,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.mailbox.TrashMessage(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{
		Success:   true,
		Message:   "Email deleted successfully",
		MessageID: id,
	})
}

type modifyRequest struct {
	Action       string   `json:"action"`
	AddLabelIDs  []string `json:"addLabelIds"`
	RemoveLabels []string `json:"removeLabelIds"`
}

// handleModify changes labels on a message, or performs the trash/archive
// shortcut actions.
func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req modifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, faults.Wrap(faults.KindValidation, err, "invalid request body"))
		return
	}

	switch req.Action {
	case "trash":
		if err := s.mailbox.TrashMessage(r.Context(), id); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: "Email trashed successfully"})
	case "archive":
		if err := s.mailbox.ArchiveMessage(r.Context(), id); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: "Email archived successfully"})
	case "":
		if len(req.AddLabelIDs) == 0 && len(req.RemoveLabels) == 0 {
			s.writeError(w, r, faults.New(faults.KindValidation, "no action or label modifications specified"))
			return
		}
		if err := s.mailbox.ModifyLabels(r.Context(), id, req.AddLabelIDs, req.RemoveLabels); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, actionResponse{
			Success:   true,
			Message:   "Labels modified successfully",
			MessageID: id,
		})
	default:
		s.writeError(w, r, faults.Newf(faults.KindValidation, "unknown action %q", req.Action))
	}
}

type statusResponse struct {
	Backend            string   `json:"backend"`
	GmailAuthenticated bool     `json:"gmail_authenticated"`
	AIServiceStatus    string   `json:"local_ai_service_status"`
	Model              string   `json:"model"`
	InstalledModels    []string `json:"installed_models,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	info := s.prober.Status(r.Context())

	aiStatus := "inactive"
	if info.Running && info.ModelAvailable {
		aiStatus = "active"
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Backend:            "running",
		GmailAuthenticated: s.authed(),
		AIServiceStatus:    aiStatus,
		Model:              info.Model,
		InstalledModels:    info.Models,
	})
}
