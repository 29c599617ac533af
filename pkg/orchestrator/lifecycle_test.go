package orchestrator

import (
	"testing"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestNextStage_WalksPipelineInOrder(t *testing.T) {
	next, ok := nextStage(config.StageDiscovery)
	assert.True(t, ok)
	assert.Equal(t, config.StagePreparation, next)

	next, ok = nextStage(config.StagePreparation)
	assert.True(t, ok)
	assert.Equal(t, config.StageGeneration, next)

	next, ok = nextStage(config.StageGeneration)
	assert.True(t, ok)
	assert.Equal(t, config.StagePosting, next)
}

func TestNextStage_PostingIsTerminal(t *testing.T) {
	_, ok := nextStage(config.StagePosting)
	assert.False(t, ok)
}

func TestNextStage_UnknownStage(t *testing.T) {
	_, ok := nextStage(config.StageName("not-a-stage"))
	assert.False(t, ok)
}

func TestOrchestrator_SetPool(t *testing.T) {
	o := New(nil, nil, &config.OrchestratorConfig{})
	assert.Nil(t, o.pool)

	pool := NewWorkerPool("pod-1", nil, &config.OrchestratorConfig{}, map[string]StageExecutor{})
	o.SetPool(pool)
	assert.Same(t, pool, o.pool)
}
