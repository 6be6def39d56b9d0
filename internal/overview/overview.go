// Package overview assembles the dashboard landing summary.
package overview

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kubenetlabs/mlops-console/internal/datasource"
	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// RecentLimit is the number of items kept per section.
const RecentLimit = 5

// Fetcher reads the catalogues shown on the overview.
type Fetcher interface {
	Experiments(ctx context.Context) ([]types.Experiment, error)
	TrackingRuns(ctx context.Context) ([]types.TrackingRun, error)
	Pipelines(ctx context.Context) ([]types.Pipeline, error)
	Models(ctx context.Context) ([]types.RegisteredModel, error)
}

// Counts holds the total number of items per catalogue.
type Counts struct {
	Experiments int `json:"experiments"`
	Runs        int `json:"runs"`
	Pipelines   int `json:"pipelines"`
	Models      int `json:"models"`
}

// ResourceError reports a catalogue that could not be fetched.
type ResourceError struct {
	Resource string `json:"resource"`
	Message  string `json:"message"`
}

// Summary is the overview payload. Catalogues that failed are left empty
// and listed in Errors.
type Summary struct {
	Counts      Counts                  `json:"counts"`
	Experiments []types.Experiment      `json:"experiments"`
	Runs        []types.TrackingRun     `json:"runs"`
	Pipelines   []types.Pipeline        `json:"pipelines"`
	Models      []types.RegisteredModel `json:"models"`
	Errors      []ResourceError         `json:"errors,omitempty"`
}

// Partial reports whether at least one catalogue failed.
func (s *Summary) Partial() bool {
	return len(s.Errors) > 0
}

// Build fetches every catalogue concurrently. It only returns an error when
// ctx is cancelled; individual failures are recorded in the summary.
func Build(ctx context.Context, f Fetcher) (*Summary, error) {
	s := &Summary{
		Experiments: []types.Experiment{},
		Runs:        []types.TrackingRun{},
		Pipelines:   []types.Pipeline{},
		Models:      []types.RegisteredModel{},
	}
	var mu sync.Mutex
	fail := func(res datasource.Resource, err error) {
		mu.Lock()
		s.Errors = append(s.Errors, ResourceError{Resource: string(res), Message: err.Error()})
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := f.Experiments(gctx)
		if err != nil {
			fail(datasource.Experiments, err)
			return nil
		}
		s.Counts.Experiments = len(items)
		s.Experiments = recent(items)
		return nil
	})
	g.Go(func() error {
		items, err := f.TrackingRuns(gctx)
		if err != nil {
			fail(datasource.TrackingRuns, err)
			return nil
		}
		s.Counts.Runs = len(items)
		s.Runs = recent(items)
		return nil
	})
	g.Go(func() error {
		items, err := f.Pipelines(gctx)
		if err != nil {
			fail(datasource.Pipelines, err)
			return nil
		}
		s.Counts.Pipelines = len(items)
		s.Pipelines = recent(items)
		return nil
	})
	g.Go(func() error {
		items, err := f.Models(gctx)
		if err != nil {
			fail(datasource.Models, err)
			return nil
		}
		s.Counts.Models = len(items)
		s.Models = recent(items)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slices.SortFunc(s.Errors, func(a, b ResourceError) int {
		return strings.Compare(a.Resource, b.Resource)
	})
	return s, nil
}

// ErrAllFailed is returned by Require when no catalogue could be fetched.
var ErrAllFailed = errors.New("no catalogue could be fetched")

// Require returns ErrAllFailed when every catalogue failed.
func (s *Summary) Require() error {
	if len(s.Errors) == 4 {
		return ErrAllFailed
	}
	return nil
}

func recent[T any](items []T) []T {
	if len(items) > RecentLimit {
		items = items[:RecentLimit]
	}
	return append([]T{}, items...)
}

