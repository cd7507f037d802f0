package generation

import "log"

// ProgressSink receives progress updates as a percentage in [0, 100] and a
// short status line. Failures, including panics, are ignored by the planner.
type ProgressSink func(percent int, message string) error

func (s ProgressSink) report(percent int, message string) {
	if s == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[GEN] progress sink panicked: %v", r)
		}
	}()
	_ = s(percent, message)
}
