package modelclient

import (
	"context"
	"errors"
	"fmt"
)

// FanOutCall is one step of a sequential fan-out: a model ID plus whichever
// of TextChat/VisionChat the caller wants to invoke.
type FanOutCall func(ctx context.Context, backend Backend, modelID string) (*ChatResult, error)

// SequentialFanOut tries each (backend, modelID) pair in order and returns
// the first success, matching spec §4.3's report-synthesis fan-out mode.
// Report synthesis itself does not use this: it fans out in parallel
// across all model IDs and collects every result (see the report
// synthesizer package). This sequential variant backs the enricher's
// vision model fallback (primary vision model, then secondary).
func SequentialFanOut(ctx context.Context, backends []Backend, modelIDs []string, call FanOutCall) (*ChatResult, error) {
	if len(backends) != len(modelIDs) {
		return nil, fmt.Errorf("SequentialFanOut: backends and modelIDs length mismatch (%d vs %d)", len(backends), len(modelIDs))
	}
	var lastErr error
	for i, backend := range backends {
		result, err := call(ctx, backend, modelIDs[i])
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("SequentialFanOut: no backends provided")
	}
	return nil, fmt.Errorf("SequentialFanOut: all backends failed: %w", lastErr)
}
