package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task is one input with its outcome, stored at the input's index.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
}

// ProcessFunc handles a single task.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs tasks across a fixed number of workers.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a pool. workers below 1 is treated as 1.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		process: fn,
	}
}

// Execute runs every input and returns one Task per input in input order,
// whatever order the workers finish in. Inputs that were never started
// because ctx ended carry ctx.Err().
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))
	if len(inputs) == 0 {
		return results
	}

	started := make([]bool, len(inputs))
	inputCh := make(chan int)

	workers := p.workers
	if workers > len(inputs) {
		workers = len(inputs)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range inputCh {
				result, err := p.process(ctx, inputs[idx])
				results[idx] = Task[T, R]{
					Input:  inputs[idx],
					Result: result,
					Err:    err,
				}
				if err != nil {
					log.Debug().Err(err).Int("worker", workerID).Int("index", idx).Msg("Task failed")
				}
			}
		}(w)
	}

send:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break send
		case inputCh <- i:
			started[i] = true
		}
	}
	close(inputCh)
	wg.Wait()

	for i, ok := range started {
		if !ok {
			results[i] = Task[T, R]{Input: inputs[i], Err: ctx.Err()}
		}
	}
	return results
}

// BatchBySize packs consecutive items into groups whose summed size stays
// within maxSize. An item larger than maxSize gets a group of its own.
// maxSize <= 0 puts everything in one group.
func BatchBySize[T any](items []T, maxSize int, size func(T) int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if maxSize <= 0 {
		return [][]T{items}
	}

	var batches [][]T
	start, total := 0, 0
	for i, item := range items {
		n := size(item)
		if i > start && total+n > maxSize {
			batches = append(batches, items[start:i])
			start, total = i, 0
		}
		total += n
	}
	return append(batches, items[start:])
}
