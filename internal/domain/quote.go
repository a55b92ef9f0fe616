package domain

// Quote is the latest close for a (symbol, market) pair.
type Quote struct {
	Symbol   string   `json:"symbol"`
	Market   Market   `json:"market"`
	Price    float64  `json:"price"`
	Currency Currency `json:"currency"`
	AsOf     Date     `json:"as_of"`
}

// QuoteSnapshot is the stored quote set. AsOf is the most recent quote date.
type QuoteSnapshot struct {
	AsOf    Date    `json:"as_of"`
	Records []Quote `json:"records"`
}

// NewQuoteSnapshot builds a snapshot and derives its AsOf.
func NewQuoteSnapshot(records []Quote) QuoteSnapshot {
	snap := QuoteSnapshot{Records: records}
	if snap.Records == nil {
		snap.Records = []Quote{}
	}
	for _, q := range records {
		if q.AsOf.After(snap.AsOf) {
			snap.AsOf = q.AsOf
		}
	}
	return snap
}

// FreshAsOf reports whether the snapshot is non-empty and every quote is dated today.
func (s QuoteSnapshot) FreshAsOf(today Date) bool {
	if len(s.Records) == 0 {
		return false
	}
	for _, q := range s.Records {
		if !q.AsOf.Equal(today) {
			return false
		}
	}
	return true
}

// PricePoint is one daily close.
type PricePoint struct {
	Date  Date    `json:"date"`
	Close float64 `json:"close"`
}

// SymbolMarket identifies a traded instrument.
type SymbolMarket struct {
	Symbol string
	Market Market
}
