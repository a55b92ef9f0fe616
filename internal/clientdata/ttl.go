package clientdata

import "time"

// Cache lifetimes added to the store time to compute expires_at.
const (
	TTLPriceHistory = 6 * time.Hour // daily closes only move once per session
)
