// Package metrics registers the gateway's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconcileRecords counts metadata repairs by action
	// (added, removed, updated).
	ReconcileRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filecrate",
		Name:      "reconcile_records_total",
		Help:      "File records repaired during reconciliation, by action.",
	}, []string{"action"})

	// PipelineStages counts processing stage outcomes.
	PipelineStages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filecrate",
		Name:      "pipeline_stage_total",
		Help:      "Processing pipeline stage executions, by stage and result.",
	}, []string{"stage", "result"})

	// UploadsCompleted counts successful upload completions.
	UploadsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "filecrate",
		Name:      "uploads_completed_total",
		Help:      "Uploads recorded via the completion endpoint.",
	})
)
