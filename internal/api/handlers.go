package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BTreeMap/Brenda/internal/models"
)

// messageRequest is the body of POST /messages.
type messageRequest struct {
	From        string `json:"from"`
	Body        string `json:"body"`
	ProfileName string `json:"profile_name,omitempty"`
	MessageSID  string `json:"message_sid,omitempty"`
}

// twilioWebhookHandler receives Twilio's form-encoded inbound message. It
// answers 200 with the processing result even when processing failed, so
// Twilio does not retry a message the user already got an apology for.
func (s *Server) twilioWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.logger.Warn("Server.twilioWebhookHandler: failed to parse form", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid form body"))
		return
	}
	fields := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}

	if s.validSignature != nil {
		url := s.opts.WebhookBaseURL + r.URL.RequestURI()
		if !s.validSignature(url, fields, r.Header.Get(TwilioSignatureHeader)) {
			s.logger.Warn("Server.twilioWebhookHandler: invalid Twilio signature", "url", url)
			writeJSONResponse(w, http.StatusForbidden, models.Error("Invalid signature"))
			return
		}
	}

	msg := models.IncomingMessageFromFields(fields, s.opts.Now())
	if msg.From == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("From is required"))
		return
	}
	s.logger.Debug("Server.twilioWebhookHandler: inbound message", "from", msg.From, "sid", msg.MessageSID)
	result := s.processor.ProcessMessage(r.Context(), msg)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// messagesHandler accepts a JSON message from channels other than Twilio.
func (s *Server) messagesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("Server.messagesHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	msg := models.IncomingMessage{
		MessageSID:  req.MessageSID,
		From:        models.NormalizeUserID(req.From),
		Body:        strings.TrimSpace(req.Body),
		ProfileName: strings.TrimSpace(req.ProfileName),
		ReceivedAt:  s.opts.Now(),
	}
	if msg.From == "" {
		writeError(w, models.ErrEmptyUserID)
		return
	}
	if msg.Body == "" {
		writeError(w, models.ErrEmptyBody)
		return
	}
	result := s.processor.ProcessMessage(r.Context(), msg)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

func (s *Server) getLeadHandler(w http.ResponseWriter, r *http.Request) {
	userID := models.NormalizeUserID(chi.URLParam(r, "userID"))
	lead, err := s.leads.Get(r.Context(), userID)
	if err != nil {
		s.logger.Warn("Server.getLeadHandler: failed to load lead", "userID", userID, "error", err)
		writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(lead))
}

// healthHandler reports the lead store status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": s.opts.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK
	if err := s.leads.Ping(ctx); err != nil {
		s.logger.Warn("Server.healthHandler: lead store unavailable", "error", err)
		healthData["status"] = "degraded"
		healthData["error"] = "lead store unavailable"
		statusCode = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, statusCode, healthData)
}
