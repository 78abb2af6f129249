// Package testutil wires a complete in-memory Brenda stack for HTTP-level
// tests and provides assertion helpers for JSON API responses.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BTreeMap/Brenda/internal/api"
	"github.com/BTreeMap/Brenda/internal/config"
	"github.com/BTreeMap/Brenda/internal/content"
	"github.com/BTreeMap/Brenda/internal/flow"
	"github.com/BTreeMap/Brenda/internal/genai"
	"github.com/BTreeMap/Brenda/internal/handoff"
	"github.com/BTreeMap/Brenda/internal/intent"
	"github.com/BTreeMap/Brenda/internal/memory"
	"github.com/BTreeMap/Brenda/internal/messaging"
	"github.com/BTreeMap/Brenda/internal/metrics"
	"github.com/BTreeMap/Brenda/internal/models"
	"github.com/BTreeMap/Brenda/internal/store"
	"github.com/BTreeMap/Brenda/internal/twiliowhatsapp"
)

// FixedNow is the clock used by stacks built with NewStack.
var FixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// Stack is the API server wired to the real processor, gateway and memory
// manager, with the transport, store and hand-off sinks replaced by fakes.
type Stack struct {
	Server   *api.Server
	Store    *store.InMemoryStore
	Twilio   *twiliowhatsapp.MockClient
	Notifier *handoff.RecordingNotifier
	Metrics  *metrics.Collector
}

// NewStack builds a Stack with the default campaigns. analyzer may be nil.
func NewStack(t *testing.T, analyzer genai.Analyzer) *Stack {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return FixedNow }
	camp := config.DefaultCampaigns()

	s := &Stack{
		Store:    store.NewInMemoryStore(),
		Twilio:   twiliowhatsapp.NewMockClient(),
		Notifier: &handoff.RecordingNotifier{},
		Metrics:  metrics.NewCollector(),
	}
	mem := memory.NewManager(s.Store,
		memory.WithLogger(logger),
		memory.WithClock(clock),
		memory.WithSaveFailureRecorder(s.Metrics))
	gateway := messaging.NewGateway(messaging.NewTwilioService(s.Twilio, logger),
		messaging.WithTypingSimulation(false),
		messaging.WithGatewayLogger(logger))

	opts := []flow.Option{
		flow.WithGateway(gateway),
		flow.WithNotifier(s.Notifier),
		flow.WithMetrics(s.Metrics),
		flow.WithBankDetails(camp.Bank),
		flow.WithLogger(logger),
		flow.WithClock(clock),
	}
	if analyzer != nil {
		opts = append(opts, flow.WithAnalyzer(analyzer))
	}
	proc := flow.NewProcessor(mem, content.NewStaticCatalog(camp.Courses, camp.Bonuses),
		intent.NewMatchers(camp.Tables()), opts...)

	s.Server = api.NewServer(proc, mem,
		api.WithLogger(logger),
		api.WithMetrics(s.Metrics),
		api.WithClock(clock))
	return s
}

// Do serves req and returns the recorded response.
func (s *Stack) Do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Server.Handler().ServeHTTP(rr, req)
	return rr
}

// Say posts a JSON message from user and returns the processing result.
func (s *Stack) Say(t *testing.T, user, body string) models.ProcessResult {
	t.Helper()
	req := CreateHTTPRequest(t, http.MethodPost, "/messages", map[string]string{
		"from":         user,
		"body":         body,
		"profile_name": "Ana López",
	})
	rr := s.Do(req)
	AssertHTTPStatus(t, http.StatusOK, rr.Code, "POST /messages")

	var resp struct {
		Status string               `json:"status"`
		Result models.ProcessResult `json:"result"`
	}
	MustUnmarshalJSON(t, rr.Body.Bytes(), &resp)
	return resp.Result
}

// Lead fetches a lead through GET /leads/{userID}.
func (s *Stack) Lead(t *testing.T, user string) models.LeadMemory {
	t.Helper()
	rr := s.Do(CreateHTTPRequest(t, http.MethodGet, "/leads/"+user, nil))
	AssertHTTPStatus(t, http.StatusOK, rr.Code, "GET /leads")
	var resp struct {
		Result models.LeadMemory `json:"result"`
	}
	MustUnmarshalJSON(t, rr.Body.Bytes(), &resp)
	return resp.Result
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t testing.TB, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t testing.TB, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t testing.TB, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = bytes.NewBuffer(MustMarshalJSON(t, body))
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t testing.TB, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t testing.TB, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
