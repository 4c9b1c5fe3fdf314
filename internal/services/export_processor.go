package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ExportProcessorConfig holds configuration for the export sweep.
type ExportProcessorConfig struct {
	// PollInterval is how often to look for unexported rows (default: 1m)
	PollInterval time.Duration

	// BatchSize is the max number of rows exported per cycle (default: 50)
	BatchSize int
}

func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{
		PollInterval: time.Minute,
		BatchSize:    50,
	}
}

// Sweeper exports up to limit pending rows and reports how many it wrote.
type Sweeper interface {
	ExportPending(ctx context.Context, limit int) (int, error)
}

// ExportProcessor periodically exports rows whose transaction message never
// reached the worker.
type ExportProcessor struct {
	sweeper Sweeper
	config  ExportProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportProcessor(sweeper Sweeper, config ExportProcessorConfig) *ExportProcessor {
	def := DefaultExportProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	return &ExportProcessor{sweeper: sweeper, config: config}
}

// Start begins the sweep loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Export processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for the current cycle to finish.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Export processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *ExportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ExportProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Catch up on startup.
	p.sweep(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *ExportProcessor) sweep(ctx context.Context) {
	n, err := p.sweeper.ExportPending(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Export sweep failed", "error", err, "exported", n)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Export sweep completed", "exported", n)
	}
}
