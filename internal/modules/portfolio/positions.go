package portfolio

import (
	"sort"
	"strings"

	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/utils"
	"github.com/shopspring/decimal"
)

// PositionBreakdown aggregates a symbol across every funding group of one currency.
type PositionBreakdown struct {
	Currency    domain.Currency `json:"currency"`
	Quantity    float64         `json:"quantity"`
	AverageCost float64         `json:"average_cost"`
	RealizedPL  float64         `json:"realized_pl"`
}

// PositionGroupBreakdown is a symbol within a single funding group.
type PositionGroupBreakdown struct {
	FundingGroup string          `json:"funding_group"`
	Currency     domain.Currency `json:"currency"`
	Quantity     float64         `json:"quantity"`
	AverageCost  float64         `json:"average_cost"`
	RealizedPL   float64         `json:"realized_pl"`
}

// Position is the derived holding of one symbol.
type Position struct {
	Symbol         string                   `json:"symbol"`
	Market         domain.Market            `json:"market"`
	Breakdown      []PositionBreakdown      `json:"breakdown"`
	GroupBreakdown []PositionGroupBreakdown `json:"group_breakdown"`
}

type currencyKey struct {
	symbol   string
	currency domain.Currency
}

type groupKey struct {
	currencyKey
	group string
}

// SortTransactions returns a copy ordered by trade date. Ties keep input order.
func SortTransactions(txs []domain.Transaction) []domain.Transaction {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TradeDate.Before(sorted[j].TradeDate)
	})
	return sorted
}

// ComputePositions folds trades into per-symbol positions using weighted-average
// cost per (symbol, currency, funding group). Output is ordered by symbol.
func ComputePositions(txs []domain.Transaction) []Position {
	holdings := make(map[groupKey]*Holding)
	groupRealized := make(map[groupKey]decimal.Decimal)
	currencyRealized := make(map[currencyKey]decimal.Decimal)
	groupsByCurrency := make(map[currencyKey][]string)
	currenciesBySymbol := make(map[string][]domain.Currency)
	markets := make(map[string]domain.Market)

	for _, tx := range SortTransactions(txs) {
		markets[tx.Symbol] = tx.Market

		ck := currencyKey{symbol: tx.Symbol, currency: tx.CashCurrency}
		gk := groupKey{currencyKey: ck, group: tx.FundingGroup}

		h, ok := holdings[gk]
		if !ok {
			h = &Holding{}
			holdings[gk] = h
			if _, seen := groupsByCurrency[ck]; !seen {
				currenciesBySymbol[tx.Symbol] = append(currenciesBySymbol[tx.Symbol], tx.CashCurrency)
			}
			groupsByCurrency[ck] = append(groupsByCurrency[ck], tx.FundingGroup)
		}

		qty := decimal.NewFromFloat(tx.Quantity)
		gross := decimal.NewFromFloat(tx.GrossAmount)

		if tx.IsBuy() {
			h.Buy(qty, gross)
			continue
		}

		realized, applied := h.Sell(qty, gross)
		if !applied {
			continue
		}
		currencyRealized[ck] = currencyRealized[ck].Add(realized)
		groupRealized[gk] = groupRealized[gk].Add(realized)
	}

	symbols := make([]string, 0, len(currenciesBySymbol))
	for symbol := range currenciesBySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	positions := make([]Position, 0, len(symbols))
	for _, symbol := range symbols {
		pos := Position{
			Symbol:         symbol,
			Market:         markets[symbol],
			Breakdown:      []PositionBreakdown{},
			GroupBreakdown: []PositionGroupBreakdown{},
		}

		for _, currency := range currenciesBySymbol[symbol] {
			ck := currencyKey{symbol: symbol, currency: currency}
			total := Holding{Quantity: decimal.Zero, TotalCost: decimal.Zero}

			for _, group := range groupsByCurrency[ck] {
				gk := groupKey{currencyKey: ck, group: group}
				h := holdings[gk]
				total.Quantity = total.Quantity.Add(h.Quantity)
				total.TotalCost = total.TotalCost.Add(h.TotalCost)

				realized := groupRealized[gk]
				if h.Quantity.Abs().LessThanOrEqual(quantityEpsilon) &&
					realized.Abs().LessThanOrEqual(decimal.NewFromFloat(utils.RealizedEpsilon)) {
					continue
				}
				pos.GroupBreakdown = append(pos.GroupBreakdown, PositionGroupBreakdown{
					FundingGroup: group,
					Currency:     currency,
					Quantity:     utils.RoundDecimal(h.Quantity, 4),
					AverageCost:  utils.RoundDecimal(h.AverageCost(), 4),
					RealizedPL:   utils.RoundDecimal(realized, 2),
				})
			}

			pos.Breakdown = append(pos.Breakdown, PositionBreakdown{
				Currency:    currency,
				Quantity:    utils.RoundDecimal(total.Quantity, 4),
				AverageCost: utils.RoundDecimal(total.AverageCost(), 4),
				RealizedPL:  utils.RoundDecimal(currencyRealized[ck], 2),
			})
		}

		sort.Slice(pos.Breakdown, func(i, j int) bool {
			return pos.Breakdown[i].Currency < pos.Breakdown[j].Currency
		})
		sort.Slice(pos.GroupBreakdown, func(i, j int) bool {
			a, b := pos.GroupBreakdown[i], pos.GroupBreakdown[j]
			if a.Currency != b.Currency {
				return a.Currency < b.Currency
			}
			return strings.ToLower(a.FundingGroup) < strings.ToLower(b.FundingGroup)
		})

		positions = append(positions, pos)
	}
	return positions
}
