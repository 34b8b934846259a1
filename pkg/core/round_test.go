package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregationRound_Next(t *testing.T) {
	assert.Equal(t, RoundLeafAggregation, RoundBasicCircuits.Next())
	assert.Equal(t, RoundNodeAggregation, RoundLeafAggregation.Next())
	assert.Equal(t, RoundScheduler, RoundNodeAggregation.Next())
	assert.Equal(t, RoundScheduler, RoundScheduler.Next(), "scheduler is terminal")
}

func TestAggregationRound_String(t *testing.T) {
	assert.Equal(t, "leaf_aggregation", RoundLeafAggregation.String())
	assert.Equal(t, "node_aggregation", RoundNodeAggregation.String())
	assert.Equal(t, "unknown", AggregationRound(99).String())
}

func TestAggregationRound_NextIsLater(t *testing.T) {
	for r := RoundBasicCircuits; r < RoundScheduler; r++ {
		assert.Greater(t, r.Next(), r, "downstream jobs must belong to a later round")
	}
}
