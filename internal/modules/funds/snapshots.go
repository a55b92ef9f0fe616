// Package funds derives per-funding-group cash and P&L snapshots and manages
// funding groups and their capital adjustments.
package funds

import (
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/modules/portfolio"
	"github.com/kabumemo/kabumemo/internal/utils"
	"github.com/shopspring/decimal"
)

// FundSnapshot is the evaluated state of one funding group.
type FundSnapshot struct {
	Name                string          `json:"name"`
	Currency            domain.Currency `json:"currency"`
	InitialAmount       float64         `json:"initial_amount"`
	CashBalance         float64         `json:"cash_balance"`
	HoldingCost         float64         `json:"holding_cost"`
	CurrentTotal        float64         `json:"current_total"`
	TotalPL             float64         `json:"total_pl"`
	CurrentYearPL       float64         `json:"current_year_pl"`
	CurrentYearPLRatio  *float64        `json:"current_year_pl_ratio"`
	PreviousYearPL      float64         `json:"previous_year_pl"`
	PreviousYearPLRatio *float64        `json:"previous_year_pl_ratio"`
}

// AggregatedFundSnapshot sums the snapshots of one currency.
type AggregatedFundSnapshot struct {
	Currency            domain.Currency `json:"currency"`
	GroupCount          int             `json:"group_count"`
	InitialAmount       float64         `json:"initial_amount"`
	CashBalance         float64         `json:"cash_balance"`
	HoldingCost         float64         `json:"holding_cost"`
	CurrentTotal        float64         `json:"current_total"`
	TotalPL             float64         `json:"total_pl"`
	CurrentYearPL       float64         `json:"current_year_pl"`
	CurrentYearPLRatio  *float64        `json:"current_year_pl_ratio"`
	PreviousYearPL      float64         `json:"previous_year_pl"`
	PreviousYearPLRatio *float64        `json:"previous_year_pl_ratio"`
}

// Snapshots is the /funds response body.
type Snapshots struct {
	Funds      []FundSnapshot           `json:"funds"`
	Aggregated []AggregatedFundSnapshot `json:"aggregated"`
}

// SnapshotInput is everything the snapshot engine reads.
type SnapshotInput struct {
	Transactions []domain.Transaction
	Groups       []domain.FundingGroup
	Settlements  []domain.TaxSettlement
	Capital      []domain.CapitalAdjustment
}

// groupState is a funding group evaluated at a cutoff date.
type groupState struct {
	contributions decimal.Decimal
	cashBalance   decimal.Decimal
	holdingCost   decimal.Decimal
	currentTotal  decimal.Decimal
}

type evaluator struct {
	trades      []domain.Transaction
	groups      []domain.FundingGroup
	settlements []domain.TaxSettlement
	capital     []domain.CapitalAdjustment
}

// stateAt replays every event dated on or before tradeCutoff, and capital
// adjustments effective on or before capitalCutoff. A zero tradeCutoff means
// no cutoff.
func (e *evaluator) stateAt(tradeCutoff, capitalCutoff domain.Date) map[string]groupState {
	cashFlows := make(map[string]decimal.Decimal)
	inventories := make(map[string]map[string]*portfolio.Holding)

	for _, tx := range e.trades {
		if !tradeCutoff.IsZero() && tx.TradeDate.After(tradeCutoff) {
			continue
		}
		gross := decimal.NewFromFloat(tx.GrossAmount)
		qty := decimal.NewFromFloat(tx.Quantity)

		// Cash moves even when the sell finds no inventory.
		if tx.IsBuy() {
			cashFlows[tx.FundingGroup] = cashFlows[tx.FundingGroup].Sub(gross)
		} else {
			cashFlows[tx.FundingGroup] = cashFlows[tx.FundingGroup].Add(gross)
		}

		inv, ok := inventories[tx.FundingGroup]
		if !ok {
			inv = make(map[string]*portfolio.Holding)
			inventories[tx.FundingGroup] = inv
		}
		h, ok := inv[tx.Symbol]
		if !ok {
			h = &portfolio.Holding{}
			inv[tx.Symbol] = h
		}
		if tx.IsBuy() {
			h.Buy(qty, gross)
		} else {
			h.Sell(qty, gross)
		}
	}

	for _, s := range e.settlements {
		if !tradeCutoff.IsZero() && s.RecordedAt.After(tradeCutoff) {
			continue
		}
		cashFlows[s.FundingGroup] = cashFlows[s.FundingGroup].Sub(decimal.NewFromFloat(s.Amount))
	}

	contributions := make(map[string]decimal.Decimal)
	for _, c := range e.capital {
		if c.EffectiveDate.After(capitalCutoff) {
			continue
		}
		contributions[c.FundingGroup] = contributions[c.FundingGroup].Add(decimal.NewFromFloat(c.Amount))
	}

	state := make(map[string]groupState, len(e.groups))
	for _, g := range e.groups {
		holding := decimal.Zero
		for _, h := range inventories[g.Name] {
			holding = holding.Add(h.TotalCost)
		}
		cash := decimal.NewFromFloat(g.InitialAmount).
			Add(contributions[g.Name]).
			Add(cashFlows[g.Name])
		state[g.Name] = groupState{
			contributions: contributions[g.Name],
			cashBalance:   cash,
			holdingCost:   holding,
			currentTotal:  cash.Add(holding),
		}
	}
	return state
}

// yearPL is the change in current total between two evaluations, net of
// contributions made in between.
func yearPL(end, start groupState) decimal.Decimal {
	return end.currentTotal.Sub(start.currentTotal).
		Sub(end.contributions.Sub(start.contributions))
}

func money(d decimal.Decimal) float64 {
	return utils.RoundDecimal(d, 2)
}

type bucket struct {
	count            int
	initialAmount    decimal.Decimal
	cashBalance      decimal.Decimal
	holdingCost      decimal.Decimal
	currentTotal     decimal.Decimal
	totalPL          decimal.Decimal
	currentYearPL    decimal.Decimal
	previousYearPL   decimal.Decimal
	baselineCurrent  decimal.Decimal
	baselinePrevious decimal.Decimal
}

func (b *bucket) add(s FundSnapshot, lastYear, prevYear groupState) {
	b.count++
	b.initialAmount = b.initialAmount.Add(decimal.NewFromFloat(s.InitialAmount))
	b.cashBalance = b.cashBalance.Add(decimal.NewFromFloat(s.CashBalance))
	b.holdingCost = b.holdingCost.Add(decimal.NewFromFloat(s.HoldingCost))
	b.currentTotal = b.currentTotal.Add(decimal.NewFromFloat(s.CurrentTotal))
	b.totalPL = b.totalPL.Add(decimal.NewFromFloat(s.TotalPL))
	b.currentYearPL = b.currentYearPL.Add(decimal.NewFromFloat(s.CurrentYearPL))
	b.previousYearPL = b.previousYearPL.Add(decimal.NewFromFloat(s.PreviousYearPL))
	b.baselineCurrent = b.baselineCurrent.Add(lastYear.currentTotal)
	b.baselinePrevious = b.baselinePrevious.Add(prevYear.currentTotal)
}

// ComputeSnapshots evaluates every funding group at today, at the end of the
// previous year and at the end of the year before that. Capital adjustments
// effective after today never count.
func ComputeSnapshots(in SnapshotInput, today domain.Date) Snapshots {
	e := &evaluator{
		trades:      portfolio.SortTransactions(in.Transactions),
		groups:      in.Groups,
		settlements: in.Settlements,
		capital:     in.Capital,
	}

	lastYearEnd := domain.YearEnd(today.Year() - 1)
	prevYearEnd := domain.YearEnd(today.Year() - 2)

	final := e.stateAt(domain.Date{}, today)
	lastYear := e.stateAt(lastYearEnd, lastYearEnd)
	prevYear := e.stateAt(prevYearEnd, prevYearEnd)

	out := Snapshots{
		Funds:      make([]FundSnapshot, 0, len(in.Groups)),
		Aggregated: []AggregatedFundSnapshot{},
	}
	buckets := make(map[domain.Currency]*bucket)

	for _, g := range in.Groups {
		f, ly, py := final[g.Name], lastYear[g.Name], prevYear[g.Name]
		initial := decimal.NewFromFloat(g.InitialAmount)

		currentYear := yearPL(f, ly)
		previousYear := yearPL(ly, py)

		snap := FundSnapshot{
			Name:                g.Name,
			Currency:            g.Currency,
			InitialAmount:       money(initial.Add(f.contributions)),
			CashBalance:         money(f.cashBalance),
			HoldingCost:         money(f.holdingCost),
			CurrentTotal:        money(f.currentTotal),
			TotalPL:             money(f.currentTotal.Sub(initial.Add(f.contributions))),
			CurrentYearPL:       money(currentYear),
			CurrentYearPLRatio:  utils.RatioOrNil(currentYear, ly.currentTotal),
			PreviousYearPL:      money(previousYear),
			PreviousYearPLRatio: utils.RatioOrNil(previousYear, py.currentTotal),
		}
		out.Funds = append(out.Funds, snap)

		b, ok := buckets[g.Currency]
		if !ok {
			b = &bucket{}
			buckets[g.Currency] = b
		}
		b.add(snap, ly, py)
	}

	for _, currency := range domain.Currencies {
		b, ok := buckets[currency]
		if !ok || b.count == 0 {
			continue
		}
		out.Aggregated = append(out.Aggregated, AggregatedFundSnapshot{
			Currency:            currency,
			GroupCount:          b.count,
			InitialAmount:       money(b.initialAmount),
			CashBalance:         money(b.cashBalance),
			HoldingCost:         money(b.holdingCost),
			CurrentTotal:        money(b.currentTotal),
			TotalPL:             money(b.totalPL),
			CurrentYearPL:       money(b.currentYearPL),
			CurrentYearPLRatio:  utils.RatioOrNil(b.currentYearPL, b.baselineCurrent),
			PreviousYearPL:      money(b.previousYearPL),
			PreviousYearPLRatio: utils.RatioOrNil(b.previousYearPL, b.baselinePrevious),
		})
	}
	return out
}
