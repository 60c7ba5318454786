// Package metrics exposes the bridge relayer's Prometheus instrumentation:
// per-direction job outcome counters and checkpoint gauges, registered at
// package load the way the rest of the pack's indexers/syncers do it with
// promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels a completed relay job.
type Outcome string

const (
	OutcomeRelayed       Outcome = "relayed"
	OutcomeAlreadyDone   Outcome = "already_done"
	OutcomeNotResponsible Outcome = "not_responsible"
	OutcomeError         Outcome = "error"
)

// Direction labels which of the three relay job kinds an outcome belongs to.
type Direction string

const (
	DirectionMainToSideSign       Direction = "main_to_side_sign"
	DirectionSideToMainSign       Direction = "side_to_main_sign"
	DirectionSideToMainSignatures Direction = "side_to_main_signatures"
)

var (
	jobOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_relayer_job_outcomes_total",
		Help: "Total number of completed relay jobs by direction and outcome",
	}, []string{"direction", "outcome"})

	checkpoint = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bridge_relayer_checkpoint_block",
		Help: "Highest block number fully relayed for a given direction",
	}, []string{"direction"})

	headBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bridge_relayer_chain_head_block",
		Help: "Latest observed block number on a chain",
	}, []string{"chain"})

	rpcErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_relayer_rpc_errors_total",
		Help: "Total number of RPC errors by chain and operation",
	}, []string{"chain", "operation"})
)

// ObserveJobOutcome records that a relay job in the given direction reached
// the given terminal outcome.
func ObserveJobOutcome(direction Direction, outcome Outcome) {
	jobOutcomes.WithLabelValues(string(direction), string(outcome)).Inc()
}

// SetCheckpoint records the highest fully-relayed block for a direction.
func SetCheckpoint(direction Direction, block uint64) {
	checkpoint.WithLabelValues(string(direction)).Set(float64(block))
}

// SetChainHead records the latest observed block number for a chain, e.g.
// "main" or "side".
func SetChainHead(chain string, block uint64) {
	headBlock.WithLabelValues(chain).Set(float64(block))
}

// ObserveRPCError records a failed RPC call, e.g. chain="main",
// operation="get_logs".
func ObserveRPCError(chain, operation string) {
	rpcErrors.WithLabelValues(chain, operation).Inc()
}
