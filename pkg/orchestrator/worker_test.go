package orchestrator

import (
	"testing"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker("pod-1-discovery-0", "discovery", nil, &config.OrchestratorConfig{}, nil, nil)

	h := w.Health()
	assert.Equal(t, "pod-1-discovery-0", h.ID)
	assert.Equal(t, "discovery", h.Stage)
	assert.Equal(t, workerStatusIdle, h.Status)
	assert.Empty(t, h.CurrentTaskID)
	assert.Zero(t, h.TasksProcessed)
	assert.WithinDuration(t, time.Now(), h.LastActivity, time.Second)
}

func TestWorker_SetStatusAndBumpProcessed(t *testing.T) {
	w := NewWorker("w1", "generation", nil, &config.OrchestratorConfig{}, nil, nil)

	w.setStatus(workerStatusWorking, "task-123")
	h := w.Health()
	assert.Equal(t, workerStatusWorking, h.Status)
	assert.Equal(t, "task-123", h.CurrentTaskID)

	w.bumpProcessed()
	w.bumpProcessed()
	assert.Equal(t, 2, w.Health().TasksProcessed)

	w.setStatus(workerStatusIdle, "")
	h = w.Health()
	assert.Equal(t, workerStatusIdle, h.Status)
	assert.Empty(t, h.CurrentTaskID)
}

func TestWorker_PollInterval_NoJitter(t *testing.T) {
	w := NewWorker("w1", "posting", nil, &config.OrchestratorConfig{
		PollInterval: 5 * time.Second,
	}, nil, nil)

	assert.Equal(t, 5*time.Second, w.pollInterval())
}

func TestWorker_PollInterval_WithinJitterBounds(t *testing.T) {
	w := NewWorker("w1", "posting", nil, &config.OrchestratorConfig{
		PollInterval:       5 * time.Second,
		PollIntervalJitter: time.Second,
	}, nil, nil)

	for i := 0; i < 50; i++ {
		d := w.pollInterval()
		assert.GreaterOrEqual(t, d, 4*time.Second)
		assert.LessOrEqual(t, d, 6*time.Second)
	}
}
