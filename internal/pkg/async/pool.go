// Package async runs independent named computations on a bounded set of workers.
package async

import (
	"context"
	"fmt"
	"sync"
)

type Task struct {
	Name    string
	Execute func(ctx context.Context) (any, error)
}

type Result struct {
	Name string
	Data any
	Err  error
}

// Pool bounds how many tasks of one Execute call run at once. A Pool may be
// reused; every call gets its own channels.
type Pool struct {
	workerCount int
}

func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{workerCount: workerCount}
}

func run(ctx context.Context, task Task) (res Result) {
	res.Name = task.Name
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("task %s panicked: %v", task.Name, r)
		}
	}()
	res.Data, res.Err = task.Execute(ctx)
	return res
}

// Execute runs tasks and returns their results keyed by name. When ctx is
// cancelled first, the tasks that did not finish are missing from the map.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	results := make(map[string]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	queue := make(chan Task)
	out := make(chan Result, len(tasks))

	workers := min(p.workerCount, len(tasks))
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				out <- run(ctx, task)
			}
		}()
	}

	go func() {
		defer close(queue)
		for _, task := range tasks {
			select {
			case queue <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	for {
		select {
		case res, ok := <-out:
			if !ok {
				return results
			}
			results[res.Name] = res
		case <-ctx.Done():
			return results
		}
	}
}

// Get returns the typed value of a named result.
func Get[T any](results map[string]Result, name string) (T, error) {
	var zero T
	res, ok := results[name]
	if !ok {
		return zero, fmt.Errorf("task %s did not complete", name)
	}
	if res.Err != nil {
		return zero, fmt.Errorf("task %s: %w", name, res.Err)
	}
	v, ok := res.Data.(T)
	if !ok {
		return zero, fmt.Errorf("task %s returned %T", name, res.Data)
	}
	return v, nil
}
