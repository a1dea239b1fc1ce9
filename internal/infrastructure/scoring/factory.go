package scoring

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/bibbank/scamshield/internal/domain/service"
	"github.com/bibbank/scamshield/internal/infrastructure/config"
	"github.com/bibbank/scamshield/internal/infrastructure/onnx"
)

// Initializer loads whatever a scorer needs before it can serve. The returned
// Closer releases those resources. Failures wrap service.ErrInitialization.
type Initializer func() (io.Closer, error)

// NewScorer returns the scorer named by cfg.Strategy and the step that makes it
// ready. A model scorer reports not ready until its Initializer succeeds.
func NewScorer(cfg config.ScorerConfig, logger *slog.Logger) (service.Scorer, Initializer, error) {
	switch cfg.Strategy {
	case service.StrategyLexical:
		return service.NewLexicalScorer(), func() (io.Closer, error) { return nopCloser{}, nil }, nil
	case service.StrategyModel:
		ms := service.NewModelScorer(logger)
		return ms, func() (io.Closer, error) { return loadModel(ms, cfg, logger) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown scorer strategy %q", cfg.Strategy)
	}
}

// loadModel opens the ONNX bundle under cfg.ModelDir and installs it.
func loadModel(ms *service.ModelScorer, cfg config.ScorerConfig, logger *slog.Logger) (io.Closer, error) {
	handle, closer, err := onnx.Load(onnx.BundleConfig{
		Dir:               cfg.ModelDir,
		SharedLibraryPath: cfg.SharedLibraryPath,
		MaxTokens:         cfg.MaxTokens,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := ms.Initialize(handle); err != nil {
		closer.Close() //nolint:errcheck
		return nil, err
	}
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
