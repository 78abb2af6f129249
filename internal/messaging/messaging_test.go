package messaging

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BTreeMap/Brenda/internal/models"
	"github.com/BTreeMap/Brenda/internal/twiliowhatsapp"
	"github.com/BTreeMap/Brenda/internal/whatsapp"
)

// Ensure both transports implement Service.
func TestServicesImplementService(t *testing.T) {
	var _ Service = (*TwilioService)(nil)
	var _ Service = (*WhatsAppService)(nil)
}

func TestValidateAndCanonicalizeRecipient(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient(), nil)
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"whatsapp:+52 1 555-123-4567", "5215551234567", nil},
		{"+5551234567", "5551234567", nil},
		{"", "", models.ErrEmptyRecipient},
		{"abc", "", models.ErrInvalidPhone},
		{"12345", "", models.ErrInvalidPhone},
	}
	for _, tt := range tests {
		got, err := svc.ValidateAndCanonicalizeRecipient(tt.in)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("%q: expected %v, got %v", tt.in, tt.wantErr, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%q: got (%q, %v), want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestTwilioServiceSendsCanonicalRecipient(t *testing.T) {
	mock := twiliowhatsapp.NewMockClient()
	svc := NewTwilioService(mock, nil)

	sid, err := svc.SendMediaMessage(context.Background(), "whatsapp:+5551234567", "Tu bono", "https://x.test/b.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs := mock.Messages()
	if len(msgs) != 1 || msgs[0].To != "5551234567" || msgs[0].MediaURL == "" || msgs[0].SID != sid {
		t.Errorf("unexpected sent messages: %+v", msgs)
	}
}

func TestTwilioServiceStop(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient(), nil)
	if err := svc.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("second Stop returned error: %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), "5551234567", "hola"); !errors.Is(err, ErrServiceStopped) {
		t.Errorf("expected ErrServiceStopped, got %v", err)
	}
	if _, ok := <-svc.Responses(); ok {
		t.Error("expected responses channel closed")
	}
}

func TestWhatsAppServiceStartStop(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient(), nil)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), "+5551234567", "hola"); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if _, ok := <-svc.Responses(); ok {
		t.Error("expected responses channel closed")
	}
}

func TestTypingDelayClamp(t *testing.T) {
	g := NewGateway(NewTwilioService(twiliowhatsapp.NewMockClient(), nil), WithTypingSpeed(10))
	tests := []struct {
		body string
		want time.Duration
	}{
		{"hola", DefaultMinTypingDelay},
		{strings.Repeat("a", 30), 3 * time.Second},
		{strings.Repeat("a", 500), DefaultMaxTypingDelay},
		{strings.Repeat("ñ", 30), 3 * time.Second},
	}
	for _, tt := range tests {
		if got := g.TypingDelay(tt.body); got != tt.want {
			t.Errorf("TypingDelay(len %d) = %v, want %v", len(tt.body), got, tt.want)
		}
	}

	off := NewGateway(nil, WithTypingSimulation(false))
	if d := off.TypingDelay(strings.Repeat("a", 500)); d != 0 {
		t.Errorf("expected zero delay when disabled, got %v", d)
	}
}

func TestGatewaySendUsesDelay(t *testing.T) {
	mock := twiliowhatsapp.NewMockClient()
	g := NewGateway(NewTwilioService(mock, nil))
	var slept []time.Duration
	g.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	results := g.SendAll(context.Background(), "5551234567", []models.OutboundMessage{
		models.Text("Hola"),
		{Body: "Aquí tu guía", MediaURL: "https://x.test/g.pdf"},
		models.Text(""),
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Success || !results[1].Success || results[0].MessageSID == "" {
		t.Errorf("unexpected results: %+v", results)
	}
	if results[2].Success || results[2].Error == "" {
		t.Errorf("expected empty body failure, got %+v", results[2])
	}
	if len(slept) != 2 || slept[0] != DefaultMinTypingDelay {
		t.Errorf("unexpected delays %v", slept)
	}
	if len(mock.Messages()) != 2 {
		t.Errorf("expected 2 delivered messages, got %d", len(mock.Messages()))
	}
}

func TestGatewaySendReportsFailure(t *testing.T) {
	mock := twiliowhatsapp.NewMockClient()
	mock.Err = errors.New("twilio down")
	g := NewGateway(NewTwilioService(mock, nil), WithTypingSimulation(false))

	res := g.Send(context.Background(), "5551234567", models.Text("hola"))
	if res.Success || !strings.Contains(res.Error, "twilio down") {
		t.Errorf("expected failure result, got %+v", res)
	}
}

func TestGatewaySendCancelledDuringDelay(t *testing.T) {
	mock := twiliowhatsapp.NewMockClient()
	g := NewGateway(NewTwilioService(mock, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := g.Send(ctx, "5551234567", models.Text("hola"))
	if res.Success {
		t.Error("expected cancelled send to fail")
	}
	if len(mock.Messages()) != 0 {
		t.Error("expected nothing delivered after cancellation")
	}
}

func TestGatewaySendRateLimit(t *testing.T) {
	mock := twiliowhatsapp.NewMockClient()
	g := NewGateway(NewTwilioService(mock, nil), WithTypingSimulation(false), WithSendRate(0.01, 1))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	first := g.Send(ctx, "5551234567", models.Text("uno"))
	second := g.Send(ctx, "5551234567", models.Text("dos"))
	if !first.Success {
		t.Fatalf("first send should use the burst: %+v", first)
	}
	if second.Success || second.Error == "" {
		t.Errorf("second send should exceed the deadline waiting for a token: %+v", second)
	}
	if len(mock.Messages()) != 1 {
		t.Errorf("expected 1 delivered message, got %d", len(mock.Messages()))
	}
}

type recordingProcessor struct {
	mu   sync.Mutex
	msgs []models.IncomingMessage
	done chan struct{}
}

func (p *recordingProcessor) ProcessMessage(ctx context.Context, msg models.IncomingMessage) models.ProcessResult {
	p.mu.Lock()
	p.msgs = append(p.msgs, msg)
	p.mu.Unlock()
	p.done <- struct{}{}
	return models.ProcessResult{Success: true, UserID: msg.UserID()}
}

func TestResponseHandlerDispatchesInbound(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient(), nil)
	proc := &recordingProcessor{done: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	NewResponseHandler(svc, proc, nil).Start(ctx)
	svc.emit(models.IncomingMessage{From: "5551234567", Body: "Hola"})

	select {
	case <-proc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("processor was not called")
	}
	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.msgs) != 1 || proc.msgs[0].Body != "Hola" {
		t.Errorf("unexpected messages %+v", proc.msgs)
	}
}
