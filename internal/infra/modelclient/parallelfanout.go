package modelclient

import (
	"context"
	"sync"
)

// ModelResult is one model's outcome from a parallel fan-out.
type ModelResult struct {
	ModelID string
	Result  *ChatResult
	Err     error
}

// ParallelFanOut calls every (backend, modelID) pair concurrently and
// collects every result, successful or not -- spec §4.9 step 5's "fan out
// in parallel across the configured list of model IDs" plus step 6's
// "collect per-model success/failure". Unlike SequentialFanOut, this never
// short-circuits: report synthesis wants every variant it can get, not
// just the first one.
func ParallelFanOut(ctx context.Context, backends []Backend, modelIDs []string, call FanOutCall) []ModelResult {
	if len(backends) != len(modelIDs) {
		return nil
	}
	results := make([]ModelResult, len(backends))
	var wg sync.WaitGroup
	for i := range backends {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := call(ctx, backends[i], modelIDs[i])
			results[i] = ModelResult{ModelID: modelIDs[i], Result: result, Err: err}
		}()
	}
	wg.Wait()
	return results
}
