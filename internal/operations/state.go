package operations

import (
	"sync"
	"time"
)

// OperationStatus represents the overall run status
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
)

// OperationState represents the complete state of one pipeline run
type OperationState struct {
	mu sync.RWMutex

	ID        string          `json:"id"`
	Status    OperationStatus `json:"status"`
	StartTime time.Time       `json:"start_time"`
	EndTime   *time.Time      `json:"end_time,omitempty"`

	// Step states
	Steps map[string]*StepState `json:"steps"`

	Options RunOptions `json:"-"`
	Data    RunData    `json:"-"`

	// Error if the run failed
	Error error `json:"-"`
}

// NewOperationState creates a new operation state
func NewOperationState(id string, opts RunOptions) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		Options:   opts,
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the operation as cancelled
func (p *OperationState) Cancel(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStatus returns the run status
func (p *OperationState) GetStatus() OperationStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// GetStage returns the state of a specific Step
func (p *OperationState) GetStage(stageID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stageID]
}

// SetStage updates the state of a specific Step
func (p *OperationState) SetStage(stageID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Steps[stageID] = state
}

// AddOutput records a file written by the run
func (p *OperationState) AddOutput(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Data.Outputs = append(p.Data.Outputs, path)
}

// Outputs returns the files written so far
func (p *OperationState) Outputs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.Data.Outputs))
	copy(out, p.Data.Outputs)
	return out
}

// Duration returns the duration of the operation execution
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// HasFailures returns true if any Step has failed
func (p *OperationState) HasFailures() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, step := range p.Steps {
		if step.GetStatus() == StepStatusFailed {
			return true
		}
	}
	return false
}

// Response snapshots the run for reporting
func (p *OperationState) Response() *RunResponse {
	p.mu.RLock()
	defer p.mu.RUnlock()

	resp := &RunResponse{
		ID:      p.ID,
		Status:  p.Status,
		Steps:   make(map[string]*StepState, len(p.Steps)),
		Outputs: append([]string(nil), p.Data.Outputs...),
	}
	if p.EndTime != nil {
		resp.Duration = p.EndTime.Sub(p.StartTime)
	} else {
		resp.Duration = time.Since(p.StartTime)
	}
	for k, v := range p.Steps {
		resp.Steps[k] = v.clone()
	}
	if p.Error != nil {
		resp.Error = p.Error.Error()
	}
	return resp
}
