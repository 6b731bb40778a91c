package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline holds the collectors for identification runs.
type Pipeline struct {
	// RunsTotal counts pipeline runs by result ("success" or "failure").
	RunsTotal *prometheus.CounterVec

	// StepTotal counts step outcomes by step and status.
	StepTotal *prometheus.CounterVec

	StepDuration *prometheus.HistogramVec

	PlantsCommitted prometheus.Counter
}

// NewPipeline registers the pipeline collectors on reg.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	f := promauto.With(reg)
	return &Pipeline{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantcare",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of identification pipeline runs, labeled by result.",
		}, []string{"result"}),
		StepTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantcare",
			Subsystem: "pipeline",
			Name:      "step_total",
			Help:      "Total number of pipeline step executions, labeled by step and status.",
		}, []string{"step", "status"}),
		StepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "plantcare",
			Subsystem: "pipeline",
			Name:      "step_duration_seconds",
			Help:      "Time spent in each pipeline step.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"step"}),
		PlantsCommitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "plantcare",
			Name:      "plants_committed_total",
			Help:      "Total number of plant records added to the plant list.",
		}),
	}
}

// ObserveStep records one step execution. A nil receiver is a no-op.
func (p *Pipeline) ObserveStep(step, status string, started time.Time) {
	if p == nil {
		return
	}
	p.StepTotal.WithLabelValues(step, status).Inc()
	p.StepDuration.WithLabelValues(step).Observe(time.Since(started).Seconds())
}

func (p *Pipeline) ObserveRun(err error) {
	if p == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	p.RunsTotal.WithLabelValues(result).Inc()
}

func (p *Pipeline) ObserveCommit() {
	if p == nil {
		return
	}
	p.PlantsCommitted.Inc()
}
