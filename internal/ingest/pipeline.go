package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"
)

// PipelineOptions configures a search followed by optional enrichment.
type PipelineOptions struct {
	Search SearchOptions
	Detail bool
	Photos bool
}

// PipelineResult collects the summaries of one pipeline run.
type PipelineResult struct {
	Search *SearchResult `json:"search"`
	Detail *Result       `json:"detail,omitempty"`
	Photos *Result       `json:"photos,omitempty"`
}

// RunPipeline runs search, then detail and photo enrichment when enabled.
// Enrichment covers every house of the source, not only this page.
func (s *Service) RunPipeline(ctx context.Context, opts PipelineOptions) (*PipelineResult, error) {
	var out PipelineResult
	var err error

	if out.Search, err = s.Search(ctx, opts.Search); err != nil {
		return &out, err
	}
	if opts.Detail {
		if out.Detail, err = s.Detail(ctx, Selection{}); err != nil {
			return &out, fmt.Errorf("detail: %w", err)
		}
	}
	if opts.Photos {
		if out.Photos, err = s.Photos(ctx, Selection{}); err != nil {
			return &out, fmt.Errorf("photos: %w", err)
		}
	}

	return &out, nil
}

// Schedule runs the pipeline on a cron spec until ctx is done. A run that
// is still going when the next one is due causes that tick to be skipped.
func (s *Service) Schedule(ctx context.Context, spec string, opts PipelineOptions) error {
	if strings.TrimSpace(opts.Search.PostalCode) == "" {
		return ErrPostalCodeRequired
	}

	logger := cron.PrintfLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(spec, func() {
		res, err := s.RunPipeline(ctx, opts)
		if err != nil {
			s.logger.Error("scheduled run failed", "error", err)
			return
		}
		s.logger.Info("scheduled run complete",
			"created", res.Search.Created, "updated", res.Search.Updated, "unchanged", res.Search.Unchanged)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}

	s.logger.Info("starting scheduler", "cron", spec, "postal_code", opts.Search.PostalCode)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	return nil
}
