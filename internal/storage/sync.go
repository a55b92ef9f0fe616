package storage

import (
	"context"
	"reflect"
	"sort"

	"github.com/kabumemo/kabumemo/internal/domain"
)

// CollectionDiff compares one collection between the JSON file and the mirror.
type CollectionDiff struct {
	Label           string   `json:"label"`
	JSONCount       int      `json:"json_count"`
	SQLiteCount     int      `json:"sqlite_count"`
	MissingInSQLite []string `json:"missing_in_sqlite"`
	MissingInJSON   []string `json:"missing_in_json"`
	Mismatched      []string `json:"mismatched"`
}

// Clean reports whether both sides hold identical records.
func (d CollectionDiff) Clean() bool {
	return len(d.MissingInSQLite) == 0 && len(d.MissingInJSON) == 0 && len(d.Mismatched) == 0
}

// SyncReport is the result of CheckSync.
type SyncReport struct {
	Collections []CollectionDiff `json:"collections"`
}

// Clean reports whether every collection is in sync.
func (r SyncReport) Clean() bool {
	for _, c := range r.Collections {
		if !c.Clean() {
			return false
		}
	}
	return true
}

func diffCollections[T any](label string, jsonItems, sqliteItems []T, key func(T) string) CollectionDiff {
	jsonIndex := make(map[string]T, len(jsonItems))
	for _, item := range jsonItems {
		jsonIndex[key(item)] = item
	}
	sqliteIndex := make(map[string]T, len(sqliteItems))
	for _, item := range sqliteItems {
		sqliteIndex[key(item)] = item
	}

	diff := CollectionDiff{
		Label:           label,
		JSONCount:       len(jsonIndex),
		SQLiteCount:     len(sqliteIndex),
		MissingInSQLite: []string{},
		MissingInJSON:   []string{},
		Mismatched:      []string{},
	}
	for id, item := range jsonIndex {
		other, ok := sqliteIndex[id]
		switch {
		case !ok:
			diff.MissingInSQLite = append(diff.MissingInSQLite, id)
		case !reflect.DeepEqual(item, other):
			diff.Mismatched = append(diff.Mismatched, id)
		}
	}
	for id := range sqliteIndex {
		if _, ok := jsonIndex[id]; !ok {
			diff.MissingInJSON = append(diff.MissingInJSON, id)
		}
	}
	sort.Strings(diff.MissingInSQLite)
	sort.Strings(diff.MissingInJSON)
	sort.Strings(diff.Mismatched)
	return diff
}

// CheckSync compares every JSON collection with its mirror table.
func (r *Repository) CheckSync(ctx context.Context) (SyncReport, error) {
	var report SyncReport

	jsonTxs, err := r.ListTransactions()
	if err != nil {
		return report, err
	}
	sqlTxs, err := r.mirror.LoadTransactions(ctx)
	if err != nil {
		return report, domain.NewStorageError("load transactions", err)
	}
	report.Collections = append(report.Collections,
		diffCollections("transactions", jsonTxs, sqlTxs, func(t domain.Transaction) string { return t.ID }))

	jsonGroups, err := r.ListFundingGroups()
	if err != nil {
		return report, err
	}
	sqlGroups, err := r.mirror.LoadFundingGroups(ctx)
	if err != nil {
		return report, domain.NewStorageError("load funding groups", err)
	}
	report.Collections = append(report.Collections,
		diffCollections("funding groups", jsonGroups, sqlGroups, func(g domain.FundingGroup) string { return g.Name }))

	jsonSettlements, err := r.ListTaxSettlements()
	if err != nil {
		return report, err
	}
	sqlSettlements, err := r.mirror.LoadTaxSettlements(ctx)
	if err != nil {
		return report, domain.NewStorageError("load tax settlements", err)
	}
	report.Collections = append(report.Collections,
		diffCollections("tax settlements", jsonSettlements, sqlSettlements, func(s domain.TaxSettlement) string { return s.ID }))

	jsonCapital, err := r.ListCapitalAdjustments()
	if err != nil {
		return report, err
	}
	sqlCapital, err := r.mirror.LoadCapitalAdjustments(ctx)
	if err != nil {
		return report, domain.NewStorageError("load capital adjustments", err)
	}
	report.Collections = append(report.Collections,
		diffCollections("capital adjustments", jsonCapital, sqlCapital, func(a domain.CapitalAdjustment) string { return a.ID }))

	jsonFx, err := r.ListFxExchanges()
	if err != nil {
		return report, err
	}
	sqlFx, err := r.mirror.LoadFxExchanges(ctx)
	if err != nil {
		return report, domain.NewStorageError("load fx exchanges", err)
	}
	report.Collections = append(report.Collections,
		diffCollections("fx exchanges", jsonFx, sqlFx, func(f domain.FxExchange) string { return f.ID }))

	jsonQuotes, err := r.ListQuotes()
	if err != nil {
		return report, err
	}
	sqlQuotes, err := r.mirror.LoadQuotes(ctx)
	if err != nil {
		return report, domain.NewStorageError("load quotes", err)
	}
	quoteKey := func(q domain.Quote) string { return q.Symbol + "|" + string(q.Market) }
	report.Collections = append(report.Collections,
		diffCollections("quotes", jsonQuotes, sqlQuotes, quoteKey))

	return report, nil
}
