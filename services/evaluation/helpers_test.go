package evaluation

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockJudge is a mock implementation of Judge
type MockJudge struct {
	mock.Mock
}

func (m *MockJudge) Judge(ctx context.Context, req JudgeRequest) (Decision, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Decision), args.Error(1)
}

// probedJudge is a MockJudge that also answers availability probes
type probedJudge struct {
	MockJudge
	available bool
}

func (p *probedJudge) Available(context.Context) bool {
	return p.available
}

// recordingRecorder captures telemetry calls
type recordingRecorder struct {
	mu        sync.Mutex
	decisions []string
	findings  []string
	substrate []string
	failures  []string
}

func (r *recordingRecorder) RecordDecision(decision string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, decision)
}

func (r *recordingRecorder) RecordFinding(evaluator, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings = append(r.findings, evaluator+":"+kind)
}

func (r *recordingRecorder) RecordSubstrateCall(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.substrate = append(r.substrate, outcome)
}

func (r *recordingRecorder) RecordFailure(errorType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, errorType)
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func at(hour, minute int) time.Time {
	return time.Date(2025, time.May, 1, hour, minute, 0, 0, time.UTC)
}
