package classify

import (
	"fmt"
	"log/slog"
)

// SharedEncoder loads an Encoder on first use and hands the same instance
// to every caller. A failed load is permanent for the process.
type SharedEncoder struct {
	state lazy[Encoder]
}

// NewSharedEncoder wraps load. A nil load yields an encoder that is never
// available.
func NewSharedEncoder(load EncoderLoader, logger *slog.Logger) *SharedEncoder {
	logger = logger.With("component", "encoder")

	s := &SharedEncoder{}
	s.state.load = func() (Encoder, error) {
		if load == nil {
			return nil, fmt.Errorf("no encoder configured")
		}

		enc, err := load()
		if err != nil {
			logger.Warn("sentence encoder unavailable", "error", err)
			return nil, fmt.Errorf("load encoder: %w", err)
		}

		logger.Info("sentence encoder loaded")
		return enc, nil
	}
	return s
}

// Get returns the encoder, loading it on the first call.
func (s *SharedEncoder) Get() (Encoder, error) {
	return s.state.get()
}

// Close releases the encoder if it was loaded.
func (s *SharedEncoder) Close() error {
	return s.state.release(func(e Encoder) error { return e.Close() })
}
