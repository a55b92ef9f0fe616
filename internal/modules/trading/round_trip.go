// Package trading records trades and evaluates round-trip yields.
package trading

import (
	"math"
	"sort"

	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/utils"
	"github.com/shopspring/decimal"
)

// RoundTripYield is the realized return of a closed set of trades.
type RoundTripYield struct {
	Symbol                   string          `json:"symbol"`
	FundingGroup             string          `json:"funding_group"`
	Market                   domain.Market   `json:"market"`
	CashCurrency             domain.Currency `json:"cash_currency"`
	TransactionIDs           []string        `json:"transaction_ids"`
	TradeCount               int             `json:"trade_count"`
	TotalBuyQuantity         float64         `json:"total_buy_quantity"`
	TotalSellQuantity        float64         `json:"total_sell_quantity"`
	TotalBuyAmount           float64         `json:"total_buy_amount"`
	TotalSellAmount          float64         `json:"total_sell_amount"`
	GrossProfit              float64         `json:"gross_profit"`
	TaxTotal                 float64         `json:"tax_total"`
	NetProfit                float64         `json:"net_profit"`
	ReturnRatio              *float64        `json:"return_ratio"`
	ReturnAfterTax           *float64        `json:"return_after_tax"`
	AnnualizedReturn         *float64        `json:"annualized_return"`
	AnnualizedReturnAfterTax *float64        `json:"annualized_return_after_tax"`
	HoldingDays              int             `json:"holding_days"`
	TradeWindowStart         domain.Date     `json:"trade_window_start"`
	TradeWindowEnd           domain.Date     `json:"trade_window_end"`
}

var netZeroEpsilon = decimal.NewFromFloat(utils.NetZeroEpsilon)

// ComputeRoundTripYield evaluates the selected trades as one round trip.
// Settlements whose transaction is outside the selection are ignored.
func ComputeRoundTripYield(selected []domain.Transaction, settlements []domain.TaxSettlement) (*RoundTripYield, error) {
	if len(selected) == 0 {
		return nil, domain.NewValidationError("No transactions selected for yield calculation")
	}

	trades := make([]domain.Transaction, len(selected))
	copy(trades, selected)
	sort.Slice(trades, func(i, j int) bool {
		if c := trades[i].TradeDate.Compare(trades[j].TradeDate); c != 0 {
			return c < 0
		}
		return trades[i].ID < trades[j].ID
	})

	first := trades[0]
	for _, tx := range trades {
		switch {
		case tx.Symbol != first.Symbol:
			return nil, domain.NewValidationError("Selected transactions must share the same symbol")
		case tx.FundingGroup != first.FundingGroup:
			return nil, domain.NewValidationError("Selected transactions must use the same funding group")
		case tx.Market != first.Market:
			return nil, domain.NewValidationError("Selected transactions must belong to the same market")
		case tx.CashCurrency != first.CashCurrency:
			return nil, domain.NewValidationError("Selected transactions must share the same currency")
		}
	}

	var (
		netQuantity, buyQty, sellQty, buyAmount, sellAmount decimal.Decimal
		buys, sells                                         int
	)
	ids := make([]string, 0, len(trades))
	selectedIDs := make(map[string]struct{}, len(trades))
	start, end := first.TradeDate, first.TradeDate

	for _, tx := range trades {
		ids = append(ids, tx.ID)
		selectedIDs[tx.ID] = struct{}{}

		qty := decimal.NewFromFloat(tx.Quantity)
		gross := decimal.NewFromFloat(tx.GrossAmount)
		netQuantity = netQuantity.Add(qty)
		if tx.IsBuy() {
			buys++
			buyQty = buyQty.Add(qty)
			buyAmount = buyAmount.Add(gross)
		} else {
			sells++
			sellQty = sellQty.Sub(qty)
			sellAmount = sellAmount.Add(gross)
		}

		if tx.TradeDate.Before(start) {
			start = tx.TradeDate
		}
		if tx.TradeDate.After(end) {
			end = tx.TradeDate
		}
	}

	if netQuantity.Abs().GreaterThan(netZeroEpsilon) {
		return nil, domain.NewValidationError("Selected transactions do not net to zero quantity")
	}
	if buys == 0 || sells == 0 {
		return nil, domain.NewValidationError("A valid round trip requires at least one buy and one sell")
	}
	if !buyAmount.IsPositive() {
		return nil, domain.NewValidationError("Total buy amount must be greater than zero")
	}

	taxTotal := decimal.Zero
	for _, s := range settlements {
		if _, ok := selectedIDs[s.TransactionID]; ok {
			taxTotal = taxTotal.Add(decimal.NewFromFloat(s.Amount))
		}
	}

	grossProfit := sellAmount.Sub(buyAmount)
	netProfit := grossProfit.Sub(taxTotal)
	returnRatio := grossProfit.Div(buyAmount)
	returnAfterTax := netProfit.Div(buyAmount)

	holdingDays := start.DaysUntil(end)
	effectiveDays := holdingDays
	if effectiveDays < 1 {
		effectiveDays = 1
	}

	return &RoundTripYield{
		Symbol:                   first.Symbol,
		FundingGroup:             first.FundingGroup,
		Market:                   first.Market,
		CashCurrency:             first.CashCurrency,
		TransactionIDs:           ids,
		TradeCount:               len(trades),
		TotalBuyQuantity:         utils.RoundDecimal(buyQty, 6),
		TotalSellQuantity:        utils.RoundDecimal(sellQty, 6),
		TotalBuyAmount:           utils.RoundDecimal(buyAmount, 2),
		TotalSellAmount:          utils.RoundDecimal(sellAmount, 2),
		GrossProfit:              utils.RoundDecimal(grossProfit, 2),
		TaxTotal:                 utils.RoundDecimal(taxTotal, 2),
		NetProfit:                utils.RoundDecimal(netProfit, 2),
		ReturnRatio:              utils.Float64Ptr(utils.RoundDecimal(returnRatio, 6)),
		ReturnAfterTax:           utils.Float64Ptr(utils.RoundDecimal(returnAfterTax, 6)),
		AnnualizedReturn:         annualize(returnRatio, effectiveDays),
		AnnualizedReturnAfterTax: annualize(returnAfterTax, effectiveDays),
		HoldingDays:              holdingDays,
		TradeWindowStart:         start,
		TradeWindowEnd:           end,
	}, nil
}

// annualize compounds ratio over a 365-day year. It is nil when the position
// lost everything or more.
func annualize(ratio decimal.Decimal, days int) *float64 {
	base, _ := decimal.NewFromInt(1).Add(ratio).Float64()
	if base <= 0 {
		return nil
	}
	v := math.Pow(base, 365/float64(days)) - 1
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return utils.Float64Ptr(utils.Round6(v))
}
