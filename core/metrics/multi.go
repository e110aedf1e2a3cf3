package metrics

// MultiSink fans out metrics to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink from the given sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStageResults forwards the results to every sink and returns the first
// error encountered.
func (m *MultiSink) RecordStageResults(results []StageResult) error {
	var firstErr error
	for _, s := range m.Sinks {
		if err := s.RecordStageResults(results); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RecordCallRetry forwards the event to every sink implementing
// CallRetryRecorder.
func (m *MultiSink) RecordCallRetry(ev CallRetryEvent) error {
	var firstErr error
	for _, s := range m.Sinks {
		if r, ok := s.(CallRetryRecorder); ok {
			if err := r.RecordCallRetry(ev); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// RecordRun forwards the event to every sink implementing RunRecorder.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	var firstErr error
	for _, s := range m.Sinks {
		if r, ok := s.(RunRecorder); ok {
			if err := r.RecordRun(ev); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// RecordPlanDeleted forwards the event to every sink implementing
// PlanDeletionRecorder.
func (m *MultiSink) RecordPlanDeleted(ev PlanDeletedEvent) error {
	var firstErr error
	for _, s := range m.Sinks {
		if r, ok := s.(PlanDeletionRecorder); ok {
			if err := r.RecordPlanDeleted(ev); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
