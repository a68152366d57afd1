package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/flowly/internal/model"
)

// Metrics is the full set of dashboard figures for one snapshot.
type Metrics struct {
	DollarsPerUnit    decimal.Decimal
	TotalUnitsInStock decimal.Decimal
	TotalCashBalance  decimal.Decimal
	NetCashFlow       map[Window]decimal.Decimal
}

// Flow returns the net cash flow for w, zero if it was not computed.
func (m Metrics) Flow(w Window) decimal.Decimal {
	return m.NetCashFlow[w]
}

// DollarsPerUnit is Sale revenue divided by Sale units. It is zero when no
// Sale carries positive units.
func DollarsPerUnit(txns []model.Transaction) decimal.Decimal {
	var revenue, units decimal.Decimal
	for _, t := range txns {
		if t.Type != model.TypeSale {
			continue
		}
		revenue = revenue.Add(t.MoneyIn)
		units = units.Add(t.Units)
	}
	return ratio(revenue, units)
}

func ratio(revenue, units decimal.Decimal) decimal.Decimal {
	if !units.IsPositive() {
		return decimal.Zero
	}
	return revenue.Div(units)
}

// TotalUnitsInStock is purchased units minus sold units. The result may be
// negative when more has been sold than bought.
func TotalUnitsInStock(txns []model.Transaction) decimal.Decimal {
	var stock decimal.Decimal
	for _, t := range txns {
		stock = stock.Add(stockDelta(t))
	}
	return stock
}

func stockDelta(t model.Transaction) decimal.Decimal {
	switch t.Type {
	case model.TypePurchase:
		return t.Units
	case model.TypeSale:
		return t.Units.Neg()
	default:
		return decimal.Zero
	}
}

// TotalCashBalance sums account balances. Transactions are a log and do not
// contribute.
func TotalCashBalance(accounts []model.Account) decimal.Decimal {
	var total decimal.Decimal
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// NetCashFlow is money in minus money out over the transactions in window w.
func NetCashFlow(txns []model.Transaction, w Window, now time.Time) decimal.Decimal {
	var flow decimal.Decimal
	for _, t := range txns {
		if InWindow(t.Date, w, now) {
			flow = flow.Add(t.NetFlow())
		}
	}
	return flow
}

// Compute derives every metric in a single pass over the transactions.
func Compute(accounts []model.Account, txns []model.Transaction, now time.Time) Metrics {
	var revenue, soldUnits, stock decimal.Decimal
	flows := make(map[Window]decimal.Decimal, len(Windows))
	for _, w := range Windows {
		flows[w] = decimal.Zero
	}

	for _, t := range txns {
		if t.Type == model.TypeSale {
			revenue = revenue.Add(t.MoneyIn)
			soldUnits = soldUnits.Add(t.Units)
		}
		stock = stock.Add(stockDelta(t))

		net := t.NetFlow()
		for _, w := range Windows {
			if InWindow(t.Date, w, now) {
				flows[w] = flows[w].Add(net)
			}
		}
	}

	return Metrics{
		DollarsPerUnit:    ratio(revenue, soldUnits),
		TotalUnitsInStock: stock,
		TotalCashBalance:  TotalCashBalance(accounts),
		NetCashFlow:       flows,
	}
}

// Breakdown is the unit volume per transaction type.
type Breakdown struct {
	Sales     decimal.Decimal
	Purchases decimal.Decimal
	Gifts     decimal.Decimal
}

// UnitsBreakdown totals units by type for the inventory view. Gift units are
// reported but never affect stock.
func UnitsBreakdown(txns []model.Transaction) Breakdown {
	var b Breakdown
	for _, t := range txns {
		switch t.Type {
		case model.TypeSale:
			b.Sales = b.Sales.Add(t.Units)
		case model.TypePurchase:
			b.Purchases = b.Purchases.Add(t.Units)
		case model.TypeGift:
			b.Gifts = b.Gifts.Add(t.Units)
		}
	}
	return b
}
