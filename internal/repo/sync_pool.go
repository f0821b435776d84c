package repo

import (
	"context"
	"sync"
)

// RefreshAll runs Refresh concurrently across repos, bounded by workers.
// Grounded on the teacher's internal/downloader.Downloader worker pool
// (fixed goroutines draining a job channel, sync.WaitGroup for
// completion): refreshing several distinct @repository sources pulled in
// by one install is the same "N independent remote fetches" shape as N
// independent file downloads.
//
// This only ever parallelizes Refresh across distinct repositories; it
// never touches a single dependency graph walk, which spec.md §5 requires
// to stay single-threaded.
func RefreshAll(ctx context.Context, repos []Repository, workers int) []bool {
	if workers < 1 {
		workers = 1
	}
	if len(repos) == 0 {
		return nil
	}

	type job struct {
		index int
		r     Repository
	}
	type result struct {
		index int
		ok    bool
	}

	jobs := make(chan job, len(repos))
	results := make(chan result, len(repos))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- result{index: j.index, ok: j.r.Refresh(ctx)}
			}
		}()
	}

	for i, r := range repos {
		jobs <- job{index: i, r: r}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	ok := make([]bool, len(repos))
	for res := range results {
		ok[res.index] = res.ok
	}
	return ok
}
