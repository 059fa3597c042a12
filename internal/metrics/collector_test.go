package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordToolCall(t *testing.T) {
	c := NewCollector()

	c.RecordToolCall("analyze_game", "success", 100*time.Millisecond)
	c.RecordToolCall("analyze_game", "error", 50*time.Millisecond)
	c.RecordToolCall("evaluate_position", "success", 10*time.Millisecond)

	stats := c.GetStats()
	tools, ok := stats["tools"].(map[string]interface{})
	require.True(t, ok)

	analyze, ok := tools["analyze_game"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(2), analyze["calls"])
	assert.Equal(t, int64(1), analyze["errors"])
	assert.Equal(t, 0.5, analyze["error_rate"])
}

func TestCollector_RecordAnalysisRun(t *testing.T) {
	c := NewCollector()

	c.RecordAnalysisRun(25, false)
	c.RecordAnalysisRun(40, true)

	stats := c.GetStats()
	analysis, ok := stats["analysis"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(2), analysis["runs"])
	assert.Equal(t, int64(1), analysis["failures"])
	assert.Equal(t, int64(65), analysis["positions_evaluated"])
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector()
	c.RecordToolCall("analyze_game", "success", time.Millisecond)
	c.RecordAnalysisRun(10, false)

	c.Reset()

	stats := c.GetStats()
	tools, ok := stats["tools"].(map[string]interface{})
	require.True(t, ok)
	assert.Empty(t, tools)
	analysis, ok := stats["analysis"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(0), analysis["runs"])
}
