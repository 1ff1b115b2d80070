package utils

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// Instrumentation provides timing and progress tracking capabilities
type Instrumentation struct {
	logger  *slog.Logger
	verbose bool
}

// NewInstrumentation creates a new instrumentation instance
func NewInstrumentation(logger *slog.Logger, verbose bool) *Instrumentation {
	return &Instrumentation{
		logger:  logger,
		verbose: verbose,
	}
}

// TimedOperation wraps a function with timing instrumentation
func (i *Instrumentation) TimedOperation(name string, operation func() error) error {
	start := time.Now()
	i.logger.Debug("Starting operation", "operation", name)

	err := operation()
	duration := time.Since(start)

	if err != nil {
		i.logger.Error("Operation failed", "operation", name, "duration_seconds", duration.Seconds(), "error", err)
	} else {
		i.logger.Debug("Operation completed", "operation", name, "duration_seconds", duration.Seconds())
	}

	return err
}

// ProgressTracker provides progress tracking for long-running operations
type ProgressTracker struct {
	name       string
	total      int
	processed  int
	lastUpdate time.Time
	startTime  time.Time
	logger     *slog.Logger
}

// NewProgressTracker creates a new progress tracker
func (i *Instrumentation) NewProgressTracker(name string, total int) *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		name:       name,
		total:      total,
		lastUpdate: now,
		startTime:  now,
		logger:     i.logger,
	}
}

// Update increments the progress and logs every 25 items or every 2 seconds
func (pt *ProgressTracker) Update(increment int) {
	pt.processed += increment

	now := time.Now()
	if pt.processed%25 != 0 && now.Sub(pt.lastUpdate) <= 2*time.Second {
		return
	}
	pt.lastUpdate = now

	percentage := 100.0
	if pt.total > 0 {
		percentage = float64(pt.processed) / float64(pt.total) * 100
	}
	pt.logger.Debug("Progress update",
		"operation", pt.name,
		"processed", pt.processed,
		"total", pt.total,
		"percentage", percentage,
		"elapsed_seconds", now.Sub(pt.startTime).Seconds())
}

// Complete marks the operation as finished
func (pt *ProgressTracker) Complete() {
	pt.logger.Debug("Progress tracking completed",
		"operation", pt.name,
		"processed", pt.processed,
		"total", pt.total,
		"duration_seconds", time.Since(pt.startTime).Seconds())
}

// GetMemoryUsage returns current memory usage in a human-readable format
func GetMemoryUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	allocMB := float64(m.Alloc) / 1024 / 1024
	sysMB := float64(m.Sys) / 1024 / 1024

	return fmt.Sprintf("%.1fMB allocated, %.1fMB system", allocMB, sysMB)
}

// PhaseTracker tracks multiple phases of an operation
type PhaseTracker struct {
	name         string
	phases       map[string]time.Time
	durations    map[string]time.Duration
	currentPhase string
	startTime    time.Time
	logger       *slog.Logger
}

// NewPhaseTracker creates a new phase tracker
func (i *Instrumentation) NewPhaseTracker(name string) *PhaseTracker {
	i.logger.Debug("Starting operation", "operation", name)

	return &PhaseTracker{
		name:      name,
		phases:    make(map[string]time.Time),
		durations: make(map[string]time.Duration),
		startTime: time.Now(),
		logger:    i.logger,
	}
}

// StartPhase begins tracking a new phase, ending the current one
func (pt *PhaseTracker) StartPhase(phaseName string) {
	if pt.currentPhase != "" {
		pt.EndPhase()
	}

	pt.currentPhase = phaseName
	pt.phases[phaseName] = time.Now()

	pt.logger.Debug("Starting phase", "phase", phaseName, "parent_operation", pt.name)
}

// EndPhase ends the current phase
func (pt *PhaseTracker) EndPhase() {
	if pt.currentPhase == "" {
		return
	}

	if start, exists := pt.phases[pt.currentPhase]; exists {
		duration := time.Since(start)
		pt.durations[pt.currentPhase] = duration
		pt.logger.Debug("Phase completed", "phase", pt.currentPhase, "duration_seconds", duration.Seconds(), "parent_operation", pt.name)
	}

	pt.currentPhase = ""
}

// duration returns how long a finished phase took
func (pt *PhaseTracker) duration(phaseName string) (time.Duration, bool) {
	d, ok := pt.durations[phaseName]
	return d, ok
}

// Complete finishes the entire operation
func (pt *PhaseTracker) Complete(totalItems int) {
	if pt.currentPhase != "" {
		pt.EndPhase()
	}

	pt.logger.Debug("Operation completed",
		"operation", pt.name,
		"items", totalItems,
		"duration_seconds", time.Since(pt.startTime).Seconds(),
		"memory_usage", GetMemoryUsage())
}
