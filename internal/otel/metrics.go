package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce     sync.Once
	transitionsCounter  metric.Int64Counter
	commentsCounter     metric.Int64Counter
	ingestCounter       metric.Int64Counter
	sseEventsCounter    metric.Int64Counter
	sseConnectionsGauge metric.Int64ObservableGauge
	sseConnections      int64
	sseConnectionsMu    sync.Mutex
)

// InitMetrics creates the meter instruments. Safe to call multiple times;
// only runs once. Call after InitMeterProvider.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		transitionsCounter, err = m.Int64Counter("speedops_stage_transitions_total", metric.WithDescription("Total task stage transitions applied"))
		if err != nil {
			return
		}
		commentsCounter, err = m.Int64Counter("speedops_task_comments_total", metric.WithDescription("Total review comments appended"))
		if err != nil {
			return
		}
		ingestCounter, err = m.Int64Counter("speedops_synthetic_errors_derived_total", metric.WithDescription("Synthetic error entries derived from flagged comments"))
		if err != nil {
			return
		}
		sseEventsCounter, err = m.Int64Counter("speedops_sse_events_total", metric.WithDescription("Total SSE events published"))
		if err != nil {
			return
		}
		sseConnectionsGauge, err = m.Int64ObservableGauge("speedops_sse_connections", metric.WithDescription("Current SSE subscriber count"))
		if err != nil {
			return
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			sseConnectionsMu.Lock()
			n := sseConnections
			sseConnectionsMu.Unlock()
			o.ObserveInt64(sseConnectionsGauge, n)
			return nil
		}, sseConnectionsGauge)
		if err != nil {
			return
		}
	})
	return err
}

// RecordTransition records one applied stage transition.
func RecordTransition(ctx context.Context, workspace, from, to string) {
	if transitionsCounter == nil {
		return
	}
	transitionsCounter.Add(ctx, 1, metric.WithAttributes(
		AttrWorkspace.String(workspace),
		attribute.String("from", from),
		AttrStage.String(to),
	))
}

// RecordComment records one appended review comment.
func RecordComment(ctx context.Context, workspace, tag string) {
	if commentsCounter == nil {
		return
	}
	commentsCounter.Add(ctx, 1, metric.WithAttributes(AttrWorkspace.String(workspace), AttrTag.String(tag)))
}

// RecordDerivedErrors records how many synthetic entries a queue read produced.
func RecordDerivedErrors(ctx context.Context, workspace string, n int) {
	if ingestCounter == nil || n <= 0 {
		return
	}
	ingestCounter.Add(ctx, int64(n), metric.WithAttributes(AttrWorkspace.String(workspace)))
}

// RecordSSEEvent records one SSE event published.
func RecordSSEEvent(ctx context.Context) {
	if sseEventsCounter != nil {
		sseEventsCounter.Add(ctx, 1)
	}
}

// AddSSEConnection adds 1 to the SSE connection gauge (call on subscribe).
func AddSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections++
	sseConnectionsMu.Unlock()
}

// RemoveSSEConnection subtracts 1 from the SSE connection gauge (call on unsubscribe).
func RemoveSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections--
	if sseConnections < 0 {
		sseConnections = 0
	}
	sseConnectionsMu.Unlock()
}

// TaskCountFunc returns task counts keyed by stage. Used for the
// speedops_tasks_total gauge.
type TaskCountFunc func() map[string]int64

// InitMetricsWithTaskCount creates instruments and optionally registers a
// callback for the per-stage task gauge. Call after InitMeterProvider. If
// taskCount is nil, the gauge is not reported.
func InitMetricsWithTaskCount(ctx context.Context, taskCount TaskCountFunc) error {
	if err := InitMetrics(ctx); err != nil {
		return err
	}
	if taskCount == nil {
		return nil
	}
	m := Meter()
	tasksGauge, err := m.Int64ObservableGauge("speedops_tasks_total", metric.WithDescription("Number of tasks by stage"))
	if err != nil {
		return err
	}
	_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		for stage, n := range taskCount() {
			o.ObserveInt64(tasksGauge, n, metric.WithAttributes(AttrStage.String(stage)))
		}
		return nil
	}, tasksGauge)
	return err
}
