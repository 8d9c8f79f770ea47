package pco

import (
	"context"
	"sync"
	"time"
)

// DefaultBatchConcurrency is used when FindMany is given no concurrency.
const DefaultBatchConcurrency = 5

// FindResult is the outcome of one lookup of a FindMany call.
type FindResult struct {
	ID       string
	Object   *Object
	Error    error
	Duration time.Duration
}

// FindMany looks up every id concurrently, at most concurrency at a time,
// and returns the results in the order of ids. Each lookup uses its own
// proxy built by the type's All, so shared cursor state is never touched.
// configure, when non-nil, is applied to every proxy before its Find.
func (rt *ResourceType) FindMany(ctx context.Context, ids []string, concurrency int, configure func(*CollectionProxy)) []FindResult {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	results := make([]FindResult, len(ids))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, concurrency)

	for index, id := range ids {
		waitGroup.Add(1)

		go func(index int, id string) {
			defer waitGroup.Done()

			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			proxy := rt.All()
			if configure != nil {
				configure(proxy)
			}

			start := time.Now()
			obj, err := proxy.Find(ctx, id)
			results[index] = FindResult{
				ID:       id,
				Object:   obj,
				Error:    err,
				Duration: time.Since(start),
			}
		}(index, id)
	}

	waitGroup.Wait()

	return results
}
