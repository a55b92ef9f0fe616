// Package di wires databases, storage, clients, services and jobs together.
package di

import (
	"sync"

	"github.com/kabumemo/kabumemo/internal/clientdata"
	"github.com/kabumemo/kabumemo/internal/clients/yahoo"
	"github.com/kabumemo/kabumemo/internal/database"
	"github.com/kabumemo/kabumemo/internal/modules/currency"
	"github.com/kabumemo/kabumemo/internal/modules/funds"
	"github.com/kabumemo/kabumemo/internal/modules/portfolio"
	"github.com/kabumemo/kabumemo/internal/modules/quotes"
	"github.com/kabumemo/kabumemo/internal/modules/tax"
	"github.com/kabumemo/kabumemo/internal/modules/trading"
	"github.com/kabumemo/kabumemo/internal/scheduler"
	"github.com/kabumemo/kabumemo/internal/storage"
)

// Container holds every application dependency. It is created by Wire and
// handed to the server and CLI commands.
type Container struct {
	// Databases
	MirrorDB *database.DB

	// Storage
	Repository *storage.Repository
	CacheRepo  *clientdata.Repository

	// Clients
	YahooClient *yahoo.Client

	// Services
	PortfolioService *portfolio.Service
	FundsService     *funds.Service
	TradingService   *trading.Service
	TaxService       *tax.Service
	CurrencyService  *currency.Service
	QuoteService     *quotes.Service

	// OpLock serializes API requests and scheduled jobs.
	OpLock *sync.Mutex

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering.
type JobInstances struct {
	QuoteRefresh  scheduler.Job
	CacheCleanup  scheduler.Job
	WALCheckpoint scheduler.Job
	MirrorCheck   scheduler.Job
}

// All returns the jobs keyed by name.
func (j *JobInstances) All() map[string]scheduler.Job {
	jobs := make(map[string]scheduler.Job, 4)
	for _, job := range []scheduler.Job{j.QuoteRefresh, j.CacheCleanup, j.WALCheckpoint, j.MirrorCheck} {
		if job != nil {
			jobs[job.Name()] = job
		}
	}
	return jobs
}

// Close releases the mirror database.
func (c *Container) Close() error {
	if c.MirrorDB == nil {
		return nil
	}
	return c.MirrorDB.Close()
}
