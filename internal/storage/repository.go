package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/rs/zerolog"
)

// Repository is the single store for every collection. The JSON files are
// authoritative; each write goes to the SQLite mirror first and then to the file.
// Callers serialize access.
type Repository struct {
	dir    string
	mirror *Mirror
	log    zerolog.Logger
}

// NewRepository creates missing collection files in dir.
func NewRepository(dir string, mirror *Mirror, log zerolog.Logger) (*Repository, error) {
	for _, name := range AllFiles {
		if err := ensureFile(filepath.Join(dir, name)); err != nil {
			return nil, domain.NewStorageError("init "+name, err)
		}
	}
	return &Repository{
		dir:    dir,
		mirror: mirror,
		log:    log.With().Str("repo", "storage").Logger(),
	}, nil
}

// Dir returns the JSON directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Mirror returns the SQLite mirror.
func (r *Repository) Mirror() *Mirror {
	return r.mirror
}

func (r *Repository) path(name string) string {
	return filepath.Join(r.dir, name)
}

func load[T any](r *Repository, name string) ([]T, error) {
	items, err := readCollection[T](r.path(name))
	if err != nil {
		return nil, domain.NewStorageError("read "+name, err)
	}
	return items, nil
}

// persist writes items to the mirror and then to the file. When the mirror
// write fails, the mirror is restored from the previous file content and the
// original error is returned.
func persist[T any](r *Repository, name string, items []T, write func(context.Context, []T) error) error {
	ctx := context.Background()
	path := r.path(name)

	previous, err := readRaw(path)
	if err != nil {
		return domain.NewStorageError("read "+name, err)
	}

	if err := write(ctx, items); err != nil {
		r.log.Error().Err(err).Str("file", name).Msg("Mirror write failed, restoring from file")
		r.restore(ctx, name, func() error {
			prev, derr := decodeCollection[T](previous, name)
			if derr != nil {
				return derr
			}
			return write(ctx, prev)
		})
		return domain.NewStorageError("mirror "+name, err)
	}

	data, err := encodeCollection(items)
	if err != nil {
		return domain.NewStorageError("encode "+name, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return domain.NewStorageError("write "+name, err)
	}
	return nil
}

func (r *Repository) restore(ctx context.Context, name string, fn func() error) {
	if err := fn(); err != nil {
		r.log.Error().Err(err).Str("file", name).Msg("Failed to restore mirror from file")
		return
	}
	r.log.Warn().Str("file", name).Msg("Mirror restored from file")
}

// Transactions

func (r *Repository) ListTransactions() ([]domain.Transaction, error) {
	return load[domain.Transaction](r, TransactionsFile)
}

func (r *Repository) GetTransaction(id string) (domain.Transaction, error) {
	txs, err := r.ListTransactions()
	if err != nil {
		return domain.Transaction{}, err
	}
	for _, tx := range txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return domain.Transaction{}, domain.NewNotFoundError("transaction", id)
}

func (r *Repository) writeTransactions(txs []domain.Transaction) error {
	return persist(r, TransactionsFile, txs, r.mirror.WriteTransactions)
}

// AddTransaction appends tx.
func (r *Repository) AddTransaction(tx domain.Transaction) (domain.Transaction, error) {
	txs, err := r.ListTransactions()
	if err != nil {
		return domain.Transaction{}, err
	}
	txs = append(txs, tx)
	if err := r.writeTransactions(txs); err != nil {
		return domain.Transaction{}, err
	}
	r.log.Info().Str("id", tx.ID).Str("symbol", tx.Symbol).Float64("quantity", tx.Quantity).Msg("Transaction recorded")
	return tx, nil
}

// UpdateTransaction replaces the stored trade with the same id in place.
func (r *Repository) UpdateTransaction(tx domain.Transaction) (domain.Transaction, error) {
	txs, err := r.ListTransactions()
	if err != nil {
		return domain.Transaction{}, err
	}
	for i := range txs {
		if txs[i].ID == tx.ID {
			txs[i] = tx
			if err := r.writeTransactions(txs); err != nil {
				return domain.Transaction{}, err
			}
			return tx, nil
		}
	}
	return domain.Transaction{}, domain.NewNotFoundError("transaction", tx.ID)
}

// SetTransactionTaxStatus flips the taxed flag of a trade.
func (r *Repository) SetTransactionTaxStatus(id string, status domain.TaxStatus) (domain.Transaction, error) {
	tx, err := r.GetTransaction(id)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx.Taxed = status
	return r.UpdateTransaction(tx)
}

// DeleteTransaction removes a trade, every settlement referencing it, and
// clears FX links pointing at it.
func (r *Repository) DeleteTransaction(id string) error {
	txs, err := r.ListTransactions()
	if err != nil {
		return err
	}
	remaining := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.ID != id {
			remaining = append(remaining, tx)
		}
	}
	if len(remaining) == len(txs) {
		return domain.NewNotFoundError("transaction", id)
	}
	if err := r.writeTransactions(remaining); err != nil {
		return err
	}

	settlements, err := r.ListTaxSettlements()
	if err != nil {
		return err
	}
	kept := make([]domain.TaxSettlement, 0, len(settlements))
	for _, s := range settlements {
		if s.TransactionID != id {
			kept = append(kept, s)
		}
	}
	if len(kept) != len(settlements) {
		if err := r.writeTaxSettlements(kept); err != nil {
			return err
		}
	}

	fx, err := r.ListFxExchanges()
	if err != nil {
		return err
	}
	cleared := false
	for i := range fx {
		if fx[i].TransactionID != nil && *fx[i].TransactionID == id {
			fx[i].TransactionID = nil
			cleared = true
		}
	}
	if cleared {
		if err := r.writeFxExchanges(fx); err != nil {
			return err
		}
	}

	r.log.Info().
		Str("id", id).
		Int("settlements_removed", len(settlements)-len(kept)).
		Bool("fx_unlinked", cleared).
		Msg("Transaction deleted")
	return nil
}

// Funding groups

func (r *Repository) ListFundingGroups() ([]domain.FundingGroup, error) {
	return load[domain.FundingGroup](r, FundingGroupsFile)
}

func (r *Repository) GetFundingGroup(name string) (domain.FundingGroup, error) {
	groups, err := r.ListFundingGroups()
	if err != nil {
		return domain.FundingGroup{}, err
	}
	for _, g := range groups {
		if g.Name == name {
			return g, nil
		}
	}
	return domain.FundingGroup{}, domain.NewNotFoundError("funding group", name)
}

func (r *Repository) writeFundingGroups(groups []domain.FundingGroup) error {
	return persist(r, FundingGroupsFile, groups, r.mirror.WriteFundingGroups)
}

// UpsertFundingGroup replaces a group with the same name or appends a new one.
func (r *Repository) UpsertFundingGroup(group domain.FundingGroup) (domain.FundingGroup, error) {
	groups, err := r.ListFundingGroups()
	if err != nil {
		return domain.FundingGroup{}, err
	}
	replaced := false
	for i := range groups {
		if groups[i].Name == group.Name {
			groups[i] = group
			replaced = true
			break
		}
	}
	if !replaced {
		groups = append(groups, group)
	}
	if err := r.writeFundingGroups(groups); err != nil {
		return domain.FundingGroup{}, err
	}
	return group, nil
}

// PatchFundingGroup applies a partial update.
func (r *Repository) PatchFundingGroup(name string, patch domain.FundingGroupPatch) (domain.FundingGroup, error) {
	groups, err := r.ListFundingGroups()
	if err != nil {
		return domain.FundingGroup{}, err
	}
	for i := range groups {
		if groups[i].Name != name {
			continue
		}
		updated, err := patch.Apply(groups[i])
		if err != nil {
			return domain.FundingGroup{}, err
		}
		groups[i] = updated
		if err := r.writeFundingGroups(groups); err != nil {
			return domain.FundingGroup{}, err
		}
		return updated, nil
	}
	return domain.FundingGroup{}, domain.NewNotFoundError("funding group", name)
}

// DeleteFundingGroup removes a group and its capital adjustments. Trades that
// still reference the group are left untouched.
func (r *Repository) DeleteFundingGroup(name string) error {
	groups, err := r.ListFundingGroups()
	if err != nil {
		return err
	}
	remaining := make([]domain.FundingGroup, 0, len(groups))
	for _, g := range groups {
		if g.Name != name {
			remaining = append(remaining, g)
		}
	}
	if len(remaining) == len(groups) {
		return domain.NewNotFoundError("funding group", name)
	}

	adjustments, err := r.ListCapitalAdjustments()
	if err != nil {
		return err
	}
	kept := make([]domain.CapitalAdjustment, 0, len(adjustments))
	for _, a := range adjustments {
		if a.FundingGroup != name {
			kept = append(kept, a)
		}
	}
	if len(kept) != len(adjustments) {
		if err := r.writeCapitalAdjustments(kept); err != nil {
			return err
		}
	}

	return r.writeFundingGroups(remaining)
}

// EnsureDefaultGroups seeds "Default JPY" and "Default USD" when no group exists.
func (r *Repository) EnsureDefaultGroups() error {
	groups, err := r.ListFundingGroups()
	if err != nil {
		return err
	}
	if len(groups) > 0 {
		return nil
	}
	defaults := []domain.FundingGroup{
		{Name: domain.DefaultJPYGroup, Currency: domain.CurrencyJPY},
		{Name: domain.DefaultUSDGroup, Currency: domain.CurrencyUSD},
	}
	if err := r.writeFundingGroups(defaults); err != nil {
		return err
	}
	r.log.Info().Msg("Default funding groups created")
	return nil
}

// Capital adjustments

func (r *Repository) ListCapitalAdjustments() ([]domain.CapitalAdjustment, error) {
	return load[domain.CapitalAdjustment](r, CapitalAdjustmentsFile)
}

func (r *Repository) writeCapitalAdjustments(items []domain.CapitalAdjustment) error {
	return persist(r, CapitalAdjustmentsFile, items, r.mirror.WriteCapitalAdjustments)
}

// AddCapitalAdjustment appends an adjustment; its group must exist.
func (r *Repository) AddCapitalAdjustment(adj domain.CapitalAdjustment) (domain.CapitalAdjustment, error) {
	if _, err := r.GetFundingGroup(adj.FundingGroup); err != nil {
		return domain.CapitalAdjustment{}, err
	}
	items, err := r.ListCapitalAdjustments()
	if err != nil {
		return domain.CapitalAdjustment{}, err
	}
	items = append(items, adj)
	if err := r.writeCapitalAdjustments(items); err != nil {
		return domain.CapitalAdjustment{}, err
	}
	return adj, nil
}

func (r *Repository) DeleteCapitalAdjustment(id string) error {
	items, err := r.ListCapitalAdjustments()
	if err != nil {
		return err
	}
	kept := make([]domain.CapitalAdjustment, 0, len(items))
	for _, a := range items {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(items) {
		return domain.NewNotFoundError("capital adjustment", id)
	}
	return r.writeCapitalAdjustments(kept)
}

// Tax settlements

// ListTaxSettlements returns settlements with derived fields recomputed.
func (r *Repository) ListTaxSettlements() ([]domain.TaxSettlement, error) {
	items, err := load[domain.TaxSettlement](r, TaxSettlementsFile)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Normalize()
	}
	return items, nil
}

func (r *Repository) GetTaxSettlement(id string) (domain.TaxSettlement, error) {
	items, err := r.ListTaxSettlements()
	if err != nil {
		return domain.TaxSettlement{}, err
	}
	for _, s := range items {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.TaxSettlement{}, domain.NewNotFoundError("tax settlement", id)
}

func (r *Repository) writeTaxSettlements(items []domain.TaxSettlement) error {
	return persist(r, TaxSettlementsFile, items, r.mirror.WriteTaxSettlements)
}

func (r *Repository) AddTaxSettlement(s domain.TaxSettlement) (domain.TaxSettlement, error) {
	items, err := r.ListTaxSettlements()
	if err != nil {
		return domain.TaxSettlement{}, err
	}
	items = append(items, s)
	if err := r.writeTaxSettlements(items); err != nil {
		return domain.TaxSettlement{}, err
	}
	return s, nil
}

func (r *Repository) UpdateTaxSettlement(s domain.TaxSettlement) (domain.TaxSettlement, error) {
	items, err := r.ListTaxSettlements()
	if err != nil {
		return domain.TaxSettlement{}, err
	}
	for i := range items {
		if items[i].ID == s.ID {
			items[i] = s
			if err := r.writeTaxSettlements(items); err != nil {
				return domain.TaxSettlement{}, err
			}
			return s, nil
		}
	}
	return domain.TaxSettlement{}, domain.NewNotFoundError("tax settlement", s.ID)
}

func (r *Repository) DeleteTaxSettlement(id string) error {
	items, err := r.ListTaxSettlements()
	if err != nil {
		return err
	}
	kept := make([]domain.TaxSettlement, 0, len(items))
	for _, s := range items {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(items) {
		return domain.NewNotFoundError("tax settlement", id)
	}
	return r.writeTaxSettlements(kept)
}

// FX exchanges

func (r *Repository) ListFxExchanges() ([]domain.FxExchange, error) {
	return load[domain.FxExchange](r, FxExchangesFile)
}

func (r *Repository) writeFxExchanges(items []domain.FxExchange) error {
	return persist(r, FxExchangesFile, items, r.mirror.WriteFxExchanges)
}

func (r *Repository) AddFxExchange(f domain.FxExchange) (domain.FxExchange, error) {
	items, err := r.ListFxExchanges()
	if err != nil {
		return domain.FxExchange{}, err
	}
	items = append(items, f)
	if err := r.writeFxExchanges(items); err != nil {
		return domain.FxExchange{}, err
	}
	return f, nil
}

func (r *Repository) DeleteFxExchange(id string) error {
	items, err := r.ListFxExchanges()
	if err != nil {
		return err
	}
	kept := make([]domain.FxExchange, 0, len(items))
	for _, f := range items {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	if len(kept) == len(items) {
		return domain.NewNotFoundError("fx exchange", id)
	}
	return r.writeFxExchanges(kept)
}

// Quotes

func (r *Repository) ListQuotes() ([]domain.Quote, error) {
	return load[domain.Quote](r, QuotesFile)
}

// ReplaceQuotes swaps the whole quote set.
func (r *Repository) ReplaceQuotes(quotes []domain.Quote) error {
	return persist(r, QuotesFile, quotes, r.mirror.WriteQuotes)
}

// Counts returns the number of records in each collection.
func (r *Repository) Counts() (map[string]int, error) {
	counts := make(map[string]int, len(AllFiles))

	txs, err := r.ListTransactions()
	if err != nil {
		return nil, err
	}
	counts["transactions"] = len(txs)

	groups, err := r.ListFundingGroups()
	if err != nil {
		return nil, err
	}
	counts["funding_groups"] = len(groups)

	settlements, err := r.ListTaxSettlements()
	if err != nil {
		return nil, err
	}
	counts["tax_settlements"] = len(settlements)

	adjustments, err := r.ListCapitalAdjustments()
	if err != nil {
		return nil, err
	}
	counts["capital_adjustments"] = len(adjustments)

	fx, err := r.ListFxExchanges()
	if err != nil {
		return nil, err
	}
	counts["fx_exchanges"] = len(fx)

	quotes, err := r.ListQuotes()
	if err != nil {
		return nil, err
	}
	counts["quotes"] = len(quotes)

	return counts, nil
}

// SyncMirror pushes every JSON collection into the mirror in foreign key order.
func (r *Repository) SyncMirror(ctx context.Context) error {
	groups, err := r.ListFundingGroups()
	if err != nil {
		return err
	}
	if err := r.mirror.WriteFundingGroups(ctx, groups); err != nil {
		return domain.NewStorageError("sync funding groups", err)
	}

	txs, err := r.ListTransactions()
	if err != nil {
		return err
	}
	if err := r.mirror.WriteTransactions(ctx, txs); err != nil {
		return domain.NewStorageError("sync transactions", err)
	}

	settlements, err := r.ListTaxSettlements()
	if err != nil {
		return err
	}
	if err := r.mirror.WriteTaxSettlements(ctx, settlements); err != nil {
		return domain.NewStorageError("sync tax settlements", err)
	}

	adjustments, err := r.ListCapitalAdjustments()
	if err != nil {
		return err
	}
	if err := r.mirror.WriteCapitalAdjustments(ctx, adjustments); err != nil {
		return domain.NewStorageError("sync capital adjustments", err)
	}

	fx, err := r.ListFxExchanges()
	if err != nil {
		return err
	}
	if err := r.mirror.WriteFxExchanges(ctx, fx); err != nil {
		return domain.NewStorageError("sync fx exchanges", err)
	}

	quotes, err := r.ListQuotes()
	if err != nil {
		return err
	}
	if err := r.mirror.WriteQuotes(ctx, quotes); err != nil {
		return domain.NewStorageError("sync quotes", err)
	}

	r.log.Info().Int("transactions", len(txs)).Int("funding_groups", len(groups)).Msg("Mirror synchronized")
	return nil
}

// Close releases the mirror database.
func (r *Repository) Close() error {
	if err := r.mirror.DB().Close(); err != nil {
		return fmt.Errorf("failed to close mirror: %w", err)
	}
	return nil
}
