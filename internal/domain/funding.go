package domain

import "strings"

// Default funding groups created on first start.
const (
	DefaultJPYGroup = "Default JPY"
	DefaultUSDGroup = "Default USD"
)

// FundingGroup is a named pool of cash in a single currency.
type FundingGroup struct {
	Name          string   `json:"name"`
	Currency      Currency `json:"currency"`
	InitialAmount float64  `json:"initial_amount"`
	Notes         *string  `json:"notes"`
}

// Validate checks the funding group invariants.
func (g FundingGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return NewFieldError("name", "must not be empty")
	}
	if !g.Currency.Valid() {
		return NewFieldError("currency", "unknown currency")
	}
	if g.InitialAmount < 0 {
		return NewFieldError("initial_amount", "must be greater than or equal to zero")
	}
	return nil
}

// FundingGroupPatch is a partial update. Nil fields are left untouched.
type FundingGroupPatch struct {
	Currency      *Currency
	InitialAmount *float64
	Notes         *string
}

// Apply returns g with the patch applied.
func (p FundingGroupPatch) Apply(g FundingGroup) (FundingGroup, error) {
	if p.Currency != nil {
		g.Currency = *p.Currency
	}
	if p.InitialAmount != nil {
		g.InitialAmount = *p.InitialAmount
	}
	if p.Notes != nil {
		g.Notes = p.Notes
	}
	if err := g.Validate(); err != nil {
		return FundingGroup{}, err
	}
	return g, nil
}

// CapitalAdjustment is a dated contribution to a funding group's principal.
type CapitalAdjustment struct {
	ID            string  `json:"id"`
	FundingGroup  string  `json:"funding_group"`
	Amount        float64 `json:"amount"`
	EffectiveDate Date    `json:"effective_date"`
	Notes         *string `json:"notes"`
}

// Validate checks the capital adjustment invariants.
func (c CapitalAdjustment) Validate() error {
	if c.FundingGroup == "" {
		return NewFieldError("funding_group", "must not be empty")
	}
	if c.Amount <= 0 {
		return NewFieldError("amount", "must be greater than zero")
	}
	if c.EffectiveDate.IsZero() {
		return NewFieldError("effective_date", "is required")
	}
	return nil
}
