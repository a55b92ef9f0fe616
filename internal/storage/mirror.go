package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kabumemo/kabumemo/internal/database"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/utils"
	"github.com/rs/zerolog"
)

// table describes a mirror table. Key columns come first in cols.
type table struct {
	name    string
	keyCols int
	cols    []string
}

var (
	fundingGroupsTable = table{
		name: "funding_groups", keyCols: 1,
		cols: []string{"name", "seq", "currency", "initial_amount", "notes"},
	}
	transactionsTable = table{
		name: "transactions", keyCols: 1,
		cols: []string{"id", "seq", "trade_date", "symbol", "quantity", "gross_amount", "funding_group",
			"cash_currency", "market", "taxed", "memo", "cross_currency", "buy_currency", "sell_currency"},
	}
	taxSettlementsTable = table{
		name: "tax_settlements", keyCols: 1,
		cols: []string{"id", "seq", "transaction_id", "funding_group", "amount", "currency",
			"exchange_rate", "jpy_equivalent", "recorded_at"},
	}
	capitalAdjustmentsTable = table{
		name: "capital_adjustments", keyCols: 1,
		cols: []string{"id", "seq", "funding_group", "amount", "effective_date", "notes"},
	}
	fxExchangesTable = table{
		name: "fx_exchanges", keyCols: 1,
		cols: []string{"id", "seq", "exchange_date", "from_currency", "to_currency", "from_amount",
			"rate", "to_amount", "transaction_id", "notes"},
	}
	quotesTable = table{
		name: "quotes", keyCols: 2,
		cols: []string{"symbol", "market", "seq", "price", "currency", "as_of"},
	}
)

func (t table) keyList() string {
	return strings.Join(t.cols[:t.keyCols], ", ")
}

func (t table) upsertSQL() string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.cols)), ", ")
	updates := make([]string, 0, len(t.cols)-t.keyCols)
	for _, c := range t.cols[t.keyCols:] {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		t.name, strings.Join(t.cols, ", "), placeholders, t.keyList(), strings.Join(updates, ", "))
}

func (t table) deleteSQL() string {
	conds := make([]string, t.keyCols)
	for i, c := range t.cols[:t.keyCols] {
		conds[i] = c + " = ?"
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", t.name, strings.Join(conds, " AND "))
}

// Mirror keeps the SQLite copy of each collection in step with the JSON files.
type Mirror struct {
	db  *database.DB
	log zerolog.Logger
}

// NewMirror creates a mirror over an already migrated database.
func NewMirror(db *database.DB, log zerolog.Logger) *Mirror {
	return &Mirror{
		db:  db,
		log: log.With().Str("component", "mirror").Logger(),
	}
}

// DB returns the underlying database.
func (m *Mirror) DB() *database.DB {
	return m.db
}

// replace makes the table hold exactly rows. Rows are upserted and absent keys
// deleted inside one SQL transaction, so a failure leaves the table untouched.
// Upserts never trigger ON DELETE actions on unchanged parents.
func (m *Mirror) replace(ctx context.Context, t table, rows [][]any) error {
	done := utils.MeasureMirrorWrite(t.name, m.log)

	wanted := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		wanted[joinKey(row[:t.keyCols])] = struct{}{}
	}

	err := database.WithTransactionContext(ctx, m.db.Conn(), func(tx *sql.Tx) error {
		existing, err := existingKeys(ctx, tx, t)
		if err != nil {
			return err
		}

		for _, key := range existing {
			if _, ok := wanted[joinKey(key)]; ok {
				continue
			}
			if _, err := tx.ExecContext(ctx, t.deleteSQL(), key...); err != nil {
				return fmt.Errorf("failed to delete from %s: %w", t.name, err)
			}
		}

		stmt, err := tx.PrepareContext(ctx, t.upsertSQL())
		if err != nil {
			return fmt.Errorf("failed to prepare upsert for %s: %w", t.name, err)
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("failed to upsert into %s: %w", t.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	done(len(rows))
	return nil
}

func existingKeys(ctx context.Context, tx *sql.Tx, t table) ([][]any, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s", t.keyList(), t.name))
	if err != nil {
		return nil, fmt.Errorf("failed to read keys of %s: %w", t.name, err)
	}
	defer rows.Close()

	var keys [][]any
	for rows.Next() {
		vals := make([]string, t.keyCols)
		ptrs := make([]any, t.keyCols)
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan key of %s: %w", t.name, err)
		}
		key := make([]any, t.keyCols)
		for i, v := range vals {
			key[i] = v
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func joinKey(parts []any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, "\x00")
}

// Write methods, one per collection.

func (m *Mirror) WriteFundingGroups(ctx context.Context, groups []domain.FundingGroup) error {
	rows := make([][]any, len(groups))
	for i, g := range groups {
		rows[i] = []any{g.Name, i, string(g.Currency), g.InitialAmount, nullString(g.Notes)}
	}
	return m.replace(ctx, fundingGroupsTable, rows)
}

func (m *Mirror) WriteTransactions(ctx context.Context, txs []domain.Transaction) error {
	rows := make([][]any, len(txs))
	for i, t := range txs {
		rows[i] = []any{
			t.ID, i, t.TradeDate.String(), t.Symbol, t.Quantity, t.GrossAmount, t.FundingGroup,
			string(t.CashCurrency), string(t.Market), string(t.Taxed), nullString(t.Memo),
			boolInt(t.CrossCurrency), nullCurrency(t.BuyCurrency), nullCurrency(t.SellCurrency),
		}
	}
	return m.replace(ctx, transactionsTable, rows)
}

func (m *Mirror) WriteTaxSettlements(ctx context.Context, settlements []domain.TaxSettlement) error {
	rows := make([][]any, len(settlements))
	for i, s := range settlements {
		rows[i] = []any{
			s.ID, i, s.TransactionID, s.FundingGroup, s.Amount, string(s.Currency),
			nullFloat(s.ExchangeRate), s.JPYEquivalent, s.RecordedAt.String(),
		}
	}
	return m.replace(ctx, taxSettlementsTable, rows)
}

func (m *Mirror) WriteCapitalAdjustments(ctx context.Context, adjustments []domain.CapitalAdjustment) error {
	rows := make([][]any, len(adjustments))
	for i, a := range adjustments {
		rows[i] = []any{a.ID, i, a.FundingGroup, a.Amount, a.EffectiveDate.String(), nullString(a.Notes)}
	}
	return m.replace(ctx, capitalAdjustmentsTable, rows)
}

func (m *Mirror) WriteFxExchanges(ctx context.Context, records []domain.FxExchange) error {
	rows := make([][]any, len(records))
	for i, f := range records {
		rows[i] = []any{
			f.ID, i, f.ExchangeDate.String(), string(f.FromCurrency), string(f.ToCurrency),
			f.FromAmount, f.Rate, f.ToAmount, nullString(f.TransactionID), nullString(f.Notes),
		}
	}
	return m.replace(ctx, fxExchangesTable, rows)
}

func (m *Mirror) WriteQuotes(ctx context.Context, quotes []domain.Quote) error {
	rows := make([][]any, len(quotes))
	for i, q := range quotes {
		rows[i] = []any{q.Symbol, string(q.Market), i, q.Price, string(q.Currency), q.AsOf.String()}
	}
	return m.replace(ctx, quotesTable, rows)
}

// Load methods return rows in stored order.

func (m *Mirror) LoadFundingGroups(ctx context.Context) ([]domain.FundingGroup, error) {
	rows, err := m.db.Conn().QueryContext(ctx,
		`SELECT name, currency, initial_amount, notes FROM funding_groups ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query funding_groups: %w", err)
	}
	defer rows.Close()

	out := []domain.FundingGroup{}
	for rows.Next() {
		var g domain.FundingGroup
		var currency string
		var notes sql.NullString
		if err := rows.Scan(&g.Name, &currency, &g.InitialAmount, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan funding group: %w", err)
		}
		g.Currency = domain.Currency(currency)
		g.Notes = stringPtr(notes)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (m *Mirror) LoadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := m.db.Conn().QueryContext(ctx, `SELECT id, trade_date, symbol, quantity, gross_amount,
		funding_group, cash_currency, market, taxed, memo, cross_currency, buy_currency, sell_currency
		FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	out := []domain.Transaction{}
	for rows.Next() {
		var t domain.Transaction
		var cash, market, taxed string
		var memo, buy, sell sql.NullString
		var cross int
		if err := rows.Scan(&t.ID, &t.TradeDate, &t.Symbol, &t.Quantity, &t.GrossAmount,
			&t.FundingGroup, &cash, &market, &taxed, &memo, &cross, &buy, &sell); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.CashCurrency = domain.Currency(cash)
		t.Market = domain.Market(market)
		t.Taxed = domain.TaxStatus(taxed)
		t.Memo = stringPtr(memo)
		t.CrossCurrency = cross != 0
		t.BuyCurrency = currencyPtr(buy)
		t.SellCurrency = currencyPtr(sell)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (m *Mirror) LoadTaxSettlements(ctx context.Context) ([]domain.TaxSettlement, error) {
	rows, err := m.db.Conn().QueryContext(ctx, `SELECT id, transaction_id, funding_group, amount, currency,
		exchange_rate, jpy_equivalent, recorded_at FROM tax_settlements ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax_settlements: %w", err)
	}
	defer rows.Close()

	out := []domain.TaxSettlement{}
	for rows.Next() {
		var s domain.TaxSettlement
		var currency string
		var rate sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.TransactionID, &s.FundingGroup, &s.Amount, &currency,
			&rate, &s.JPYEquivalent, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tax settlement: %w", err)
		}
		s.Currency = domain.Currency(currency)
		s.ExchangeRate = floatPtr(rate)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (m *Mirror) LoadCapitalAdjustments(ctx context.Context) ([]domain.CapitalAdjustment, error) {
	rows, err := m.db.Conn().QueryContext(ctx, `SELECT id, funding_group, amount, effective_date, notes
		FROM capital_adjustments ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query capital_adjustments: %w", err)
	}
	defer rows.Close()

	out := []domain.CapitalAdjustment{}
	for rows.Next() {
		var a domain.CapitalAdjustment
		var notes sql.NullString
		if err := rows.Scan(&a.ID, &a.FundingGroup, &a.Amount, &a.EffectiveDate, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan capital adjustment: %w", err)
		}
		a.Notes = stringPtr(notes)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (m *Mirror) LoadFxExchanges(ctx context.Context) ([]domain.FxExchange, error) {
	rows, err := m.db.Conn().QueryContext(ctx, `SELECT id, exchange_date, from_currency, to_currency,
		from_amount, rate, to_amount, transaction_id, notes FROM fx_exchanges ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fx_exchanges: %w", err)
	}
	defer rows.Close()

	out := []domain.FxExchange{}
	for rows.Next() {
		var f domain.FxExchange
		var from, to string
		var txID, notes sql.NullString
		if err := rows.Scan(&f.ID, &f.ExchangeDate, &from, &to, &f.FromAmount, &f.Rate,
			&f.ToAmount, &txID, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan fx exchange: %w", err)
		}
		f.FromCurrency = domain.Currency(from)
		f.ToCurrency = domain.Currency(to)
		f.TransactionID = stringPtr(txID)
		f.Notes = stringPtr(notes)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (m *Mirror) LoadQuotes(ctx context.Context) ([]domain.Quote, error) {
	rows, err := m.db.Conn().QueryContext(ctx,
		`SELECT symbol, market, price, currency, as_of FROM quotes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	out := []domain.Quote{}
	for rows.Next() {
		var q domain.Quote
		var market, currency string
		if err := rows.Scan(&q.Symbol, &market, &q.Price, &currency, &q.AsOf); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		q.Market = domain.Market(market)
		q.Currency = domain.Currency(currency)
		out = append(out, q)
	}
	return out, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullCurrency(c *domain.Currency) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*c), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func currencyPtr(ns sql.NullString) *domain.Currency {
	if !ns.Valid {
		return nil
	}
	c := domain.Currency(ns.String)
	return &c
}
