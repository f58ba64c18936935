// File path: internal/ingest/runner.go
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nicodishanthj/partfinder/internal/catalog"
	"github.com/nicodishanthj/partfinder/internal/common"
	"github.com/nicodishanthj/partfinder/internal/common/telemetry"
	"github.com/nicodishanthj/partfinder/internal/embedding"
	"github.com/nicodishanthj/partfinder/internal/vector"
)

// Report summarizes one ingest batch.
type Report struct {
	JobID    string `json:"job_id"`
	Source   string `json:"source"`
	Ingested int    `json:"ingested"`
	Skipped  int    `json:"skipped"`
}

// Runner normalizes, embeds, and stores raw records. Malformed records
// are skipped and logged; they never abort the batch. Embedding or
// store failures do abort, since continuing would half-write the
// corpus silently.
type Runner struct {
	embedder embedding.Embedder
	store    vector.Store
}

func NewRunner(embedder embedding.Embedder, store vector.Store) *Runner {
	return &Runner{embedder: embedder, store: store}
}

// Run ingests one batch of records from a single source.
func (r *Runner) Run(ctx context.Context, source catalog.Source, records []catalog.RawRecord) (Report, error) {
	report := Report{JobID: uuid.NewString(), Source: string(source)}
	logger := common.Logger()
	logger.Info("ingest: batch started", "job_id", report.JobID, "source", source, "records", len(records))

	for i, raw := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		part, err := catalog.Normalize(raw, source)
		if err != nil {
			if errors.Is(err, catalog.ErrValidation) {
				report.Skipped++
				logger.Warn("ingest: skipping malformed record",
					"job_id", report.JobID, "index", i, "error", err)
				continue
			}
			return report, fmt.Errorf("ingest: normalize record %d: %w", i, err)
		}

		vec, err := r.embedder.Embed(ctx, part.EmbeddingText)
		if err != nil {
			return report, fmt.Errorf("ingest: embed %s: %w", part.Key(), err)
		}
		if err := r.store.Upsert(ctx, part, vec); err != nil {
			return report, fmt.Errorf("ingest: upsert %s: %w", part.Key(), err)
		}
		report.Ingested++
	}

	telemetry.RecordIngest(report.Ingested, report.Skipped)
	logger.Info("ingest: batch finished",
		"job_id", report.JobID, "ingested", report.Ingested, "skipped", report.Skipped)
	return report, nil
}

// RunConnector fetches from a connector and ingests the result.
func (r *Runner) RunConnector(ctx context.Context, conn Connector, query string) (Report, error) {
	records, err := conn.Fetch(ctx, query)
	if err != nil {
		return Report{}, fmt.Errorf("ingest: fetch from %s: %w", conn.Source(), err)
	}
	return r.Run(ctx, conn.Source(), records)
}
