package portfolio

import (
	"math"
	"sort"

	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/utils"
)

// TradeMarker places a trade on a price chart.
type TradeMarker struct {
	Date          domain.Date      `json:"date"`
	Price         float64          `json:"price"`
	Side          domain.TradeSide `json:"side"`
	Quantity      float64          `json:"quantity"`
	Currency      domain.Currency  `json:"currency"`
	TransactionID string           `json:"transaction_id"`
}

// PositionHistory is a price series plus the trades made on it.
type PositionHistory struct {
	Symbol   string              `json:"symbol"`
	Market   domain.Market       `json:"market"`
	Currency domain.Currency     `json:"currency"`
	Series   []domain.PricePoint `json:"series"`
	Markers  []TradeMarker       `json:"markers"`
}

// BuildTradeMarkers returns markers for every trade on (symbol, market).
// A trade settled in a currency other than the market's is converted when a
// linked FX record converts between exactly those two currencies.
func BuildTradeMarkers(txs []domain.Transaction, fx []domain.FxExchange, symbol string, market domain.Market) []TradeMarker {
	marketCurrency := domain.MarketCurrency(market)

	fxByTransaction := make(map[string]domain.FxExchange)
	for _, f := range fx {
		if f.TransactionID != nil && *f.TransactionID != "" {
			fxByTransaction[*f.TransactionID] = f
		}
	}

	markers := []TradeMarker{}
	for _, tx := range txs {
		if tx.Symbol != symbol || tx.Market != market {
			continue
		}
		quantity := math.Abs(tx.Quantity)
		if quantity <= 0 {
			continue
		}

		amount := tx.GrossAmount
		currency := tx.CashCurrency
		if tx.CashCurrency != marketCurrency {
			if f, ok := fxByTransaction[tx.ID]; ok && f.Converts(tx.CashCurrency, marketCurrency) {
				amount = domain.ConvertAmount(amount, tx.CashCurrency, marketCurrency, f.Rate)
				currency = marketCurrency
			}
		}

		markers = append(markers, TradeMarker{
			Date:          tx.TradeDate,
			Price:         utils.Round6(amount / quantity),
			Side:          tx.Side(),
			Quantity:      utils.Round6(quantity),
			Currency:      currency,
			TransactionID: tx.ID,
		})
	}

	sort.Slice(markers, func(i, j int) bool {
		if c := markers[i].Date.Compare(markers[j].Date); c != 0 {
			return c < 0
		}
		return markers[i].TransactionID < markers[j].TransactionID
	})
	return markers
}
