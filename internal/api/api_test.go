package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/Brenda/internal/metrics"
	"github.com/BTreeMap/Brenda/internal/models"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeProcessor struct {
	mu       sync.Mutex
	received []models.IncomingMessage
	result   models.ProcessResult
}

func (f *fakeProcessor) ProcessMessage(_ context.Context, msg models.IncomingMessage) models.ProcessResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, msg)
	res := f.result
	res.UserID = msg.UserID()
	return res
}

type fakeLeads struct {
	pingErr error
	getErr  error
}

func (f *fakeLeads) Get(_ context.Context, userID string) (*models.LeadMemory, error) {
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	lead := models.NewLeadMemory(userID, testNow)
	lead.SetName("Ana")
	return lead, nil
}

func (f *fakeLeads) Ping(context.Context) error { return f.pingErr }

func newTestServer(proc *fakeProcessor, leads *fakeLeads, opts ...Option) *Server {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return testNow }),
	}
	return NewServer(proc, leads, append(base, opts...)...)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestTwilioWebhook(t *testing.T) {
	proc := &fakeProcessor{result: models.ProcessResult{Success: true, Route: "privacy", Responses: []string{"hola"}}}
	s := newTestServer(proc, &fakeLeads{})

	form := url.Values{
		"From":        {"whatsapp:+5215551234567"},
		"To":          {"whatsapp:+14155238886"},
		"Body":        {"  Hola  "},
		"MessageSid":  {"SM123"},
		"ProfileName": {"Ana"},
	}
	req := httptest.NewRequest(http.MethodPost, "/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "ok", body["status"])
	result := body["result"].(map[string]any)
	assert.Equal(t, "5215551234567", result["user_id"])
	assert.Equal(t, "privacy", result["route"])

	require.Len(t, proc.received, 1)
	msg := proc.received[0]
	assert.Equal(t, "5215551234567", msg.From)
	assert.Equal(t, "Hola", msg.Body)
	assert.Equal(t, "SM123", msg.MessageSID)
	assert.Equal(t, testNow, msg.ReceivedAt)
}

func TestTwilioWebhookFailedProcessingStillReturns200(t *testing.T) {
	proc := &fakeProcessor{result: models.ProcessResult{Success: false, Route: "error", Error: "boom"}}
	s := newTestServer(proc, &fakeLeads{})

	form := url.Values{"From": {"whatsapp:+5215551234567"}, "Body": {"hola"}}
	req := httptest.NewRequest(http.MethodPost, "/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	result := decode(t, rr)["result"].(map[string]any)
	assert.Equal(t, false, result["success"])
}

func TestTwilioWebhookMissingFrom(t *testing.T) {
	s := newTestServer(&fakeProcessor{}, &fakeLeads{})
	req := httptest.NewRequest(http.MethodPost, "/webhook/twilio", strings.NewReader("Body=hola"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func twilioSignature(token, fullURL string, params map[string]string) string {
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, k+v)
	}
	sort.Strings(pairs)
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(fullURL + strings.Join(pairs, "")))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestTwilioWebhookSignature(t *testing.T) {
	const token = "auth-token"
	const base = "https://brenda.example.com"
	proc := &fakeProcessor{result: models.ProcessResult{Success: true}}
	s := newTestServer(proc, &fakeLeads{}, WithTwilioSignature(token, base))

	params := map[string]string{"From": "whatsapp:+5215551234567", "Body": "hola"}
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	send := func(signature string) int {
		req := httptest.NewRequest(http.MethodPost, "/webhook/twilio", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set(TwilioSignatureHeader, signature)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusForbidden, send("bogus"))
	assert.Empty(t, proc.received)

	assert.Equal(t, http.StatusOK, send(twilioSignature(token, base+"/webhook/twilio", params)))
	assert.Len(t, proc.received, 1)
}

func TestMessagesHandler(t *testing.T) {
	proc := &fakeProcessor{result: models.ProcessResult{Success: true, Route: "welcome"}}
	s := newTestServer(proc, &fakeLeads{})

	payload := []byte(`{"from":"+5215551234567","body":"1","profile_name":"Ana"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, proc.received, 1)
	assert.Equal(t, "5215551234567", proc.received[0].From)
	assert.Equal(t, "Ana", proc.received[0].ProfileName)
}

func TestMessagesHandlerValidation(t *testing.T) {
	s := newTestServer(&fakeProcessor{}, &fakeLeads{})
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"from":`},
		{"missing from", `{"body":"hola"}`},
		{"blank body", `{"from":"5215551234567","body":"   "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "error", decode(t, rr)["status"])
		})
	}
}

func TestGetLeadHandler(t *testing.T) {
	s := newTestServer(&fakeProcessor{}, &fakeLeads{})
	req := httptest.NewRequest(http.MethodGet, "/leads/5215551234567", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	lead := decode(t, rr)["result"].(map[string]any)
	assert.Equal(t, "5215551234567", lead["user_id"])
	assert.Equal(t, "Ana", lead["name"])
}

func TestGetLeadHandlerHidesStoreErrors(t *testing.T) {
	leads := &fakeLeads{getErr: errors.New("dial tcp 10.0.0.5:5432: connection refused")}
	s := newTestServer(&fakeProcessor{}, leads)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/leads/5215551234567", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, msgInternalError, body["message"])
	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrEmptyUserID, http.StatusBadRequest},
		{fmt.Errorf("parse: %w", models.ErrInvalidPhone), http.StatusBadRequest},
		{models.ErrLeadNotFound, http.StatusNotFound},
		{errors.New("timeout"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}

func TestHealthHandler(t *testing.T) {
	leads := &fakeLeads{}
	s := newTestServer(&fakeProcessor{}, leads)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "healthy", decode(t, rr)["status"])

	leads.pingErr = errors.New("disk full")
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "degraded", decode(t, rr)["status"])
}

func TestMetricsEndpointAndRequestCounting(t *testing.T) {
	collector := metrics.NewCollector()
	s := newTestServer(&fakeProcessor{}, &fakeLeads{}, WithMetrics(collector))

	for _, id := range []string{"111111", "222222"} {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/leads/"+id, nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `path="/leads/{userID}"`)
	assert.NotContains(t, rr.Body.String(), "111111")
	assert.Greater(t, testutil.CollectAndCount(collector.Registry()), 0)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(&fakeProcessor{}, &fakeLeads{}, WithCORSOrigins([]string{"https://crm.example.com"}))
	req := httptest.NewRequest(http.MethodOptions, "/messages", nil)
	req.Header.Set("Origin", "https://crm.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, "https://crm.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := newTestServer(&fakeProcessor{}, &fakeLeads{}, WithAddr("127.0.0.1:0"))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
