package orchestrator

import (
	"context"
	"testing"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_Health_NoWorkers(t *testing.T) {
	p := NewWorkerPool("pod-1", nil, &config.OrchestratorConfig{}, map[string]StageExecutor{})

	h := p.Health()
	assert.False(t, h.IsHealthy)
	assert.Equal(t, 0, h.TotalWorkers)
	assert.Equal(t, 0, h.ActiveWorkers)
	assert.Empty(t, h.WorkerStats)
}

func TestWorkerPool_RegisterCancelUnregisterTask(t *testing.T) {
	p := NewWorkerPool("pod-1", nil, &config.OrchestratorConfig{}, map[string]StageExecutor{})

	_, cancel := context.WithCancel(context.Background())
	cancelled := false
	p.RegisterTask("task-1", func() { cancelled = true; cancel() })

	assert.True(t, p.CancelTask("task-1"))
	assert.True(t, cancelled)

	p.UnregisterTask("task-1")
	assert.False(t, p.CancelTask("task-1"))
}

func TestWorkerPool_CancelTask_UnknownID(t *testing.T) {
	p := NewWorkerPool("pod-1", nil, &config.OrchestratorConfig{}, map[string]StageExecutor{})
	assert.False(t, p.CancelTask("does-not-exist"))
}
