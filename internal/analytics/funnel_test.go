package analytics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFunnelStageRates(t *testing.T) {
	stages := ComputeFunnel([]StageCount{
		{StageScraped, 100},
		{StageEnriched, 60},
		{StageContacted, 0},
		{StageResponded, 0},
	})
	require.Len(t, stages, 4)

	assert.Equal(t, 100.0, stages[0].ConversionRate)
	assert.Equal(t, 0, stages[0].DropOff)
	assert.Equal(t, 60.0, stages[1].ConversionRate)
	assert.Equal(t, 40, stages[1].DropOff)
	assert.Equal(t, 0.0, stages[2].ConversionRate)
	assert.Equal(t, 60, stages[2].DropOff)
	assert.Equal(t, 0, stages[3].DropOff)
	assert.Equal(t, 0.0, OverallConversion(stages))
	assert.NoError(t, CheckFunnel(stages))
}

func TestComputeFunnelEntryStageAlwaysFull(t *testing.T) {
	inputs := [][]StageCount{
		{{"a", 0}},
		{{"a", 0}, {"b", 0}},
		{{"a", 7}, {"b", 30}},
		{{"a", 1000}, {"b", 1}, {"c", 1}},
	}
	for _, in := range inputs {
		stages := ComputeFunnel(in)
		assert.Equal(t, 100.0, stages[0].ConversionRate)
		assert.Equal(t, 0, stages[0].DropOff)
		assert.False(t, stages[0].Inconsistent)
	}
}

func TestComputeFunnelEmptyFunnel(t *testing.T) {
	stages := ComputeFunnel([]StageCount{{"a", 0}, {"b", 0}})
	assert.Equal(t, 0.0, stages[1].ConversionRate)
	assert.Equal(t, 0.0, OverallConversion(stages))
	assert.Empty(t, ComputeFunnel(nil))
	assert.Equal(t, 0.0, OverallConversion(nil))
}

func TestComputeFunnelInconsistentStage(t *testing.T) {
	stages := ComputeFunnel([]StageCount{{"Scraped", 10}, {"Enriched", 20}, {"Contacted", 5}})

	assert.Equal(t, -10, stages[1].DropOff)
	assert.True(t, stages[1].Inconsistent)
	assert.Equal(t, 200.0, stages[1].ConversionRate)
	assert.False(t, stages[2].Inconsistent)

	err := CheckFunnel(stages)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInconsistentFunnel))

	var fe *InconsistentFunnelError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Enriched", fe.Stage)
	assert.Equal(t, "Scraped", fe.Previous)
}
