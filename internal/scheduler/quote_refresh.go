package scheduler

import (
	"context"
	"time"

	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/rs/zerolog"
)

// QuoteRefresher is implemented by quotes.Service.
type QuoteRefresher interface {
	Refresh(ctx context.Context, force bool) (domain.QuoteSnapshot, error)
}

// QuoteRefreshJob runs a non-forced quote refresh.
type QuoteRefreshJob struct {
	quotes  QuoteRefresher
	timeout time.Duration
	log     zerolog.Logger
}

// NewQuoteRefreshJob creates a quote refresh job
func NewQuoteRefreshJob(quotes QuoteRefresher, log zerolog.Logger) *QuoteRefreshJob {
	return &QuoteRefreshJob{
		quotes:  quotes,
		timeout: 5 * time.Minute,
		log:     log.With().Str("job", "quote_refresh").Logger(),
	}
}

// Name returns the job name
func (j *QuoteRefreshJob) Name() string {
	return "quote_refresh"
}

// Run refreshes quotes unless today's set is already stored.
func (j *QuoteRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	snap, err := j.quotes.Refresh(ctx, false)
	if err != nil {
		return err
	}
	j.log.Info().Int("quotes", len(snap.Records)).Str("as_of", snap.AsOf.String()).Msg("Quote refresh completed")
	return nil
}
