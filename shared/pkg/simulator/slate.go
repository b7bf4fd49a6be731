package simulator

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/line-sim/shared/types"
)

// SimulateSlate runs every matchup of a slate on a worker pool. Each matchup
// is seeded from its own game ID, so results are identical to running them
// one by one, and they are returned in input order. Game IDs must be present
// and unique. When progress is non-nil one update is sent per finished
// matchup; the channel is not closed.
func (s *MatchupSimulator) SimulateSlate(
	ctx context.Context,
	matchups []types.Matchup,
	weights types.ModelWeights,
	progress chan<- types.ProgressUpdate,
) ([]*types.SimulationResult, error) {
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateWeights(weights); err != nil {
		return nil, err
	}
	if err := validateSlateIDs(matchups); err != nil {
		return nil, err
	}
	if len(matchups) == 0 {
		return []*types.SimulationResult{}, nil
	}

	startTime := time.Now()
	numWorkers := s.config.Workers
	if numWorkers == 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(matchups) {
		numWorkers = len(matchups)
	}

	results := make([]*types.SimulationResult, len(matchups))
	jobs := make(chan int)
	finished := make(chan int, len(matchups))

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				m := matchups[i]
				result, err := s.RunSimulation(m.Home, m.Away, m.Market, weights, m.Game)
				if err != nil {
					errOnce.Do(func() { firstErr = fmt.Errorf("simulate %s: %w", m.Game.ID, err) })
					continue
				}
				results[i] = result
				finished <- i
			}
		}()
	}

	go func() {
	queue:
		for i := range matchups {
			select {
			case <-ctx.Done():
				break queue
			case jobs <- i:
			}
		}
		close(jobs)
		wg.Wait()
		close(finished)
	}()

	completed := 0
	for i := range finished {
		completed++
		if progress == nil {
			continue
		}
		update := types.ProgressUpdate{
			Type:        "slate",
			Progress:    float64(completed) / float64(len(matchups)),
			Message:     fmt.Sprintf("Simulated game %d/%d", completed, len(matchups)),
			CurrentStep: "simulation",
			TotalSteps:  len(matchups),
			GameID:      matchups[i].Game.ID,
			Timestamp:   time.Now(),
		}
		select {
		case progress <- update:
		case <-ctx.Done():
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	s.logger.WithFields(logrus.Fields{
		"games":          len(matchups),
		"workers":        numWorkers,
		"execution_time": time.Since(startTime),
	}).Info("Slate simulation completed")

	return results, nil
}

func validateSlateIDs(matchups []types.Matchup) error {
	seen := make(map[string]int, len(matchups))
	for i, m := range matchups {
		id := strings.TrimSpace(m.Game.ID)
		if id == "" {
			return fmt.Errorf("matchup %d: %w", i, ErrMissingGameID)
		}
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("matchups %d and %d share id %q: %w", prev, i, id, ErrDuplicateGameID)
		}
		seen[id] = i
	}
	return nil
}
