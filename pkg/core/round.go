package core

// AggregationRound identifies one phase of the proof-aggregation pipeline.
// Rounds are ordered: a stage only ever creates work for the round that
// follows its own.
type AggregationRound uint8

const (
	RoundBasicCircuits AggregationRound = iota
	RoundLeafAggregation
	RoundNodeAggregation
	RoundScheduler
)

// Next returns the round that consumes this round's output. Scheduler is
// the final round and returns itself.
func (r AggregationRound) Next() AggregationRound {
	if r >= RoundScheduler {
		return RoundScheduler
	}
	return r + 1
}

func (r AggregationRound) String() string {
	switch r {
	case RoundBasicCircuits:
		return "basic_circuits"
	case RoundLeafAggregation:
		return "leaf_aggregation"
	case RoundNodeAggregation:
		return "node_aggregation"
	case RoundScheduler:
		return "scheduler"
	default:
		return "unknown"
	}
}
