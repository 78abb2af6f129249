package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BTreeMap/Brenda/internal/handoff"
	"github.com/BTreeMap/Brenda/internal/models"
)

const user = "5215551234567"

// mockTB captures failures from the assertion helpers.
type mockTB struct {
	testing.TB
	failed   bool
	errorMsg string
}

func (m *mockTB) Helper() {}

func (m *mockTB) Errorf(format string, args ...interface{}) {
	m.failed = true
	m.errorMsg = fmt.Sprintf(format, args...)
}

func (m *mockTB) Error(args ...interface{}) {
	m.failed = true
	m.errorMsg = fmt.Sprint(args...)
}

func (m *mockTB) Fatalf(format string, args ...interface{}) {
	m.Errorf(format, args...)
	panic("fatal")
}

func TestStackConversationOverHTTP(t *testing.T) {
	s := NewStack(t, nil)

	if res := s.Say(t, user, "Hola"); res.Route != "privacy" || !res.Success {
		t.Fatalf("unexpected first turn: %+v", res)
	}
	s.Say(t, user, "Acepto")
	s.Say(t, user, "Ana")
	if res := s.Say(t, user, "1"); res.Route != "welcome" {
		t.Fatalf("expected course selection, got %+v", res)
	}

	lead := s.Lead(t, user)
	if lead.Name != "Ana" || lead.SelectedCourse != "experto-ia-gpt-gemini" {
		t.Errorf("unexpected lead %+v", lead)
	}
	if lead.Stage != models.StageSalesAgent {
		t.Errorf("expected sales_agent, got %q", lead.Stage)
	}

	sent := s.Twilio.Messages()
	if len(sent) < 4 {
		t.Fatalf("expected replies through the Twilio mock, got %d", len(sent))
	}
	if sent[0].To != user || !strings.Contains(sent[0].Body, "privacidad") {
		t.Errorf("unexpected first delivery %+v", sent[0])
	}
}

func TestStackAdvisorHandoff(t *testing.T) {
	s := NewStack(t, nil)
	for _, body := range []string{"Hola", "Acepto", "Ana", "2"} {
		s.Say(t, user, body)
	}

	if res := s.Say(t, user, "quiero hablar con un asesor"); res.Route != "contact" {
		t.Fatalf("expected contact question, got %+v", res)
	}
	s.Say(t, user, "sí")

	events := s.Notifier.Events()
	if len(events) != 1 || events[0].Kind != handoff.KindAdvisorRequest {
		t.Fatalf("unexpected hand-off events %+v", events)
	}
	if lead := s.Lead(t, user); !lead.AdvisorContactRequested {
		t.Error("advisor request not stored")
	}
}

func TestStackHealthAndMetrics(t *testing.T) {
	s := NewStack(t, nil)

	rr := s.Do(CreateHTTPRequest(t, http.MethodGet, "/health", nil))
	AssertHTTPStatus(t, http.StatusOK, rr.Code, "health")
	AssertJSONResponse(t, rr, "healthy")

	s.Say(t, user, "Hola")
	rr = s.Do(CreateHTTPRequest(t, http.MethodGet, "/metrics", nil))
	AssertHTTPStatus(t, http.StatusOK, rr.Code, "metrics")
	if !strings.Contains(rr.Body.String(), `route="privacy"`) {
		t.Errorf("privacy route not counted:\n%s", rr.Body.String())
	}
}

func TestAssertHTTPStatus(t *testing.T) {
	tests := []struct {
		name       string
		expected   int
		actual     int
		shouldFail bool
	}{
		{"matching status codes", 200, 200, false},
		{"different status codes", 200, 404, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockTB{}
			AssertHTTPStatus(mock, tt.expected, tt.actual, "test context")
			if mock.failed != tt.shouldFail {
				t.Errorf("expected failed=%v, got %v (%s)", tt.shouldFail, mock.failed, mock.errorMsg)
			}
		})
	}
}

func TestAssertJSONResponse(t *testing.T) {
	tests := []struct {
		name       string
		jsonBody   string
		shouldFail bool
	}{
		{"matching status", `{"status":"ok","result":"test"}`, false},
		{"different status", `{"status":"error","message":"test"}`, true},
		{"invalid JSON", `{"status":}`, true},
		{"missing status field", `{"result":"test"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockTB{}
			rr := httptest.NewRecorder()
			rr.Body.WriteString(tt.jsonBody)

			func() {
				defer func() { recover() }()
				AssertJSONResponse(mock, rr, "ok")
			}()
			if mock.failed != tt.shouldFail {
				t.Errorf("expected failed=%v, got %v (%s)", tt.shouldFail, mock.failed, mock.errorMsg)
			}
		})
	}
}

func TestCreateHTTPRequest(t *testing.T) {
	req := CreateHTTPRequest(t, http.MethodPost, "/messages", map[string]string{"from": user})
	if req.Method != http.MethodPost || req.URL.Path != "/messages" {
		t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Error("JSON body without content type")
	}

	req = CreateHTTPRequest(t, http.MethodGet, "/health", nil)
	if req.Header.Get("Content-Type") != "" {
		t.Error("content type set without body")
	}
}

func TestMustMarshalUnmarshalJSON(t *testing.T) {
	data := MustMarshalJSON(t, models.Success("x"))
	var resp models.APIResponse
	MustUnmarshalJSON(t, data, &resp)
	if resp.Status != "ok" || resp.Result != "x" {
		t.Errorf("unexpected response %+v", resp)
	}
}
