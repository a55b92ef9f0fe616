package di

import (
	"sync"

	"github.com/kabumemo/kabumemo/internal/clients/yahoo"
	"github.com/kabumemo/kabumemo/internal/config"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/modules/currency"
	"github.com/kabumemo/kabumemo/internal/modules/funds"
	"github.com/kabumemo/kabumemo/internal/modules/portfolio"
	"github.com/kabumemo/kabumemo/internal/modules/quotes"
	"github.com/kabumemo/kabumemo/internal/modules/tax"
	"github.com/kabumemo/kabumemo/internal/modules/trading"
	"github.com/rs/zerolog"
)

// InitializeServices creates the quote client and every domain service.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	repo := container.Repository
	clock := domain.SystemClock

	container.YahooClient = yahoo.NewClient(cfg.QuoteProviderURL, container.CacheRepo, log)

	container.PortfolioService = portfolio.NewService(repo, container.YahooClient, log)
	container.FundsService = funds.NewService(repo, clock, log)
	container.TradingService = trading.NewService(repo, clock, log)
	container.TaxService = tax.NewService(repo, clock, log)
	container.CurrencyService = currency.NewService(repo, clock, log)
	container.QuoteService = quotes.NewService(repo, container.YahooClient, clock, log)

	container.OpLock = &sync.Mutex{}
	return nil
}
