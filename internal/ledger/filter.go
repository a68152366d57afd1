package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/flowly/internal/model"
)

// SortKey orders a transaction list.
type SortKey string

// Sort keys.
const (
	SortDateDesc   SortKey = "dateDesc"
	SortDateAsc    SortKey = "dateAsc"
	SortAmountDesc SortKey = "amountDesc"
	SortAmountAsc  SortKey = "amountAsc"
)

// ParseSortKey resolves a sort key name; blank selects SortDateDesc.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case "":
		return SortDateDesc, nil
	case SortDateDesc, SortDateAsc, SortAmountDesc, SortAmountAsc:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// FilterOptions narrows a transaction list.
type FilterOptions struct {
	Search string                // case-insensitive match on counterparty or notes
	Type   model.TransactionType // empty matches every type
	Days   int                   // look-back from today in days; 0 disables
	SortBy SortKey
}

// Active reports whether any narrowing filter is set.
func (o FilterOptions) Active() bool {
	return o.Search != "" || o.Type != "" || o.Days > 0
}

// Filter applies the options to an enriched list and returns a new, sorted
// slice. Transactions without a date never match a day range.
func Filter(txns []model.EnrichedTransaction, opts FilterOptions, now time.Time) []model.EnrichedTransaction {
	search := strings.ToLower(strings.TrimSpace(opts.Search))
	var start time.Time
	if opts.Days > 0 {
		start = model.CalendarDate(now).AddDate(0, 0, -opts.Days)
	}

	out := make([]model.EnrichedTransaction, 0, len(txns))
	for _, t := range txns {
		if search != "" &&
			!strings.Contains(strings.ToLower(t.CustomerVendor), search) &&
			!strings.Contains(strings.ToLower(t.Notes), search) {
			continue
		}
		if opts.Type != "" && t.Type != opts.Type {
			continue
		}
		if opts.Days > 0 && (!t.HasDate() || t.Date.Before(start)) {
			continue
		}
		out = append(out, t)
	}

	SortBy(out, opts.SortBy)
	return out
}

// SortBy orders txns in place. Ties keep their existing order.
func SortBy(txns []model.EnrichedTransaction, key SortKey) {
	var less func(a, b model.EnrichedTransaction) bool
	switch key {
	case SortDateAsc:
		less = func(a, b model.EnrichedTransaction) bool { return a.Date.Before(b.Date) }
	case SortAmountDesc:
		less = func(a, b model.EnrichedTransaction) bool { return a.Amount().GreaterThan(b.Amount()) }
	case SortAmountAsc:
		less = func(a, b model.EnrichedTransaction) bool { return a.Amount().LessThan(b.Amount()) }
	default:
		less = func(a, b model.EnrichedTransaction) bool { return a.Date.After(b.Date) }
	}
	sort.SliceStable(txns, func(i, j int) bool { return less(txns[i], txns[j]) })
}
