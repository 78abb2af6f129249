package genai

import (
	"context"
	"sync"

	"github.com/BTreeMap/Brenda/internal/models"
)

// MockAnalyzer is an Analyzer for tests. It returns Result or Err and records every request.
type MockAnalyzer struct {
	mu     sync.Mutex
	Result models.AnalysisResult
	Err    error
	Calls  []models.AnalysisRequest
}

func (m *MockAnalyzer) AnalyzeAndRespond(_ context.Context, req models.AnalysisRequest) (models.AnalysisResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	return m.Result, m.Err
}

// CallCount returns the number of recorded calls.
func (m *MockAnalyzer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
