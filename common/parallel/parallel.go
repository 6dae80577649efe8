// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parallel

import (
	"context"
	"sync"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

const chanSize = 1024

// Parallel runs nJobs jobs on nWorkers workers. The first error returned by a
// job, or the cancellation of ctx, stops outstanding work.
func Parallel(ctx context.Context, nJobs, nWorkers int, worker func(workerId, jobId int) error) error {
	if nWorkers <= 1 {
		for i := 0; i < nJobs; i++ {
			if err := ctx.Err(); err != nil {
				return errors.Trace(err)
			}
			if err := worker(0, i); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c := make(chan int, chanSize)
	// producer
	go func() {
		defer close(c)
		for i := 0; i < nJobs; i++ {
			select {
			case <-ctx.Done():
				return
			case c <- i:
			}
		}
	}()
	// consumer
	var (
		wg   sync.WaitGroup
		once sync.Once
		err  error
	)
	for j := 0; j < nWorkers; j++ {
		workerId := j
		wg.Go(func() {
			for jobId := range c {
				if ctx.Err() != nil {
					return
				}
				if e := worker(workerId, jobId); e != nil {
					once.Do(func() {
						err = e
						cancel()
					})
					return
				}
			}
		})
	}
	wg.Wait()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(context.Cause(ctx))
}

// For runs worker(i) for i in [0, nJobs) on nWorkers workers.
func For(ctx context.Context, nJobs, nWorkers int, worker func(int)) error {
	return Parallel(ctx, nJobs, nWorkers, func(_, jobId int) error {
		worker(jobId)
		return nil
	})
}

// ForEach runs worker on every element of a on nWorkers workers.
func ForEach[T any](ctx context.Context, a []T, nWorkers int, worker func(int, T)) error {
	jobs := lo.Map(a, func(v T, i int) lo.Tuple2[int, T] {
		return lo.T2(i, v)
	})
	return For(ctx, len(jobs), nWorkers, func(i int) {
		worker(jobs[i].A, jobs[i].B)
	})
}
