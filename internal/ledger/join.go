package ledger

import (
	"sort"

	"github.com/Veraticus/flowly/internal/model"
)

// UnknownAccountName is shown for transactions whose account no longer exists.
const UnknownAccountName = "Unknown Account"

// Join attaches account name and colour to each transaction and orders the
// result by date, newest first. Transactions sharing a date keep their input
// order. Orphaned account references resolve to UnknownAccountName.
func Join(txns []model.Transaction, accounts []model.Account) []model.EnrichedTransaction {
	byID := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	out := make([]model.EnrichedTransaction, 0, len(txns))
	for _, t := range txns {
		e := model.EnrichedTransaction{
			Transaction:  t,
			AccountName:  UnknownAccountName,
			AccountColor: model.ColorNeutral,
		}
		if a, ok := byID[t.AccountID]; ok {
			e.AccountName = a.Name
			e.AccountColor = a.Color
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// ActiveAccounts returns the accounts flagged active, in input order.
func ActiveAccounts(accounts []model.Account) []model.Account {
	active := make([]model.Account, 0, len(accounts))
	for _, a := range accounts {
		if a.IsActive {
			active = append(active, a)
		}
	}
	return active
}

// FindAccountByName returns the account whose name equals name exactly.
func FindAccountByName(accounts []model.Account, name string) (model.Account, bool) {
	for _, a := range accounts {
		if a.Name == name {
			return a, true
		}
	}
	return model.Account{}, false
}
