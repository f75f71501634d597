// Package reports computes read-only management views over stock,
// invoices and payments. Nothing here mutates state.
package reports

import (
	"context"
	"time"

	"comptoir/internal/core/clock"
	"comptoir/internal/core/types"
	"comptoir/internal/domain/billing"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/lots"
)

// ValuationLine is the stock value of one product.
type ValuationLine struct {
	ProductID   string      `json:"productId"`
	ProductName string      `json:"productName"`
	Quantity    int64       `json:"quantity"`
	UnitCost    types.Money `json:"unitCost"`
	Value       types.Money `json:"value"`
}

// Valuation is the stock valuation report.
type Valuation struct {
	Lines      []ValuationLine `json:"lines"`
	TotalValue types.Money     `json:"totalValue"`
}

// AgingBucket groups unsettled invoices by how overdue they are.
type AgingBucket struct {
	Label    string      `json:"label"`
	Count    int         `json:"count"`
	Total    types.Money `json:"total"`
	Invoices []string    `json:"invoices"`
}

// Aging is the receivables aging report.
type Aging struct {
	AsOf    time.Time     `json:"asOf"`
	Buckets []AgingBucket `json:"buckets"`
}

// CashFlow summarizes payments over a period: customer receipts in,
// supplier payments out, grouped by method.
type CashFlow struct {
	From     time.Time              `json:"from"`
	To       time.Time              `json:"to"`
	In       types.Money            `json:"in"`
	Out      types.Money            `json:"out"`
	Net      types.Money            `json:"net"`
	ByMethod map[string]types.Money `json:"byMethod"`
}

// FinancialSummary is the top-line profitability view: customer
// invoice revenue against supplier invoice charges.
type FinancialSummary struct {
	Revenue     types.Money `json:"revenue"`
	Charges     types.Money `json:"charges"`
	GrossMargin types.Money `json:"grossMargin"`
	CashIn      types.Money `json:"cashIn"`
}

// Service computes reports.
type Service struct {
	lots     lots.Repository
	products product.Repository
	invoices billing.InvoiceRepository
	payments billing.PaymentRepository
	clock    clock.Clock
}

// NewService creates a report service.
func NewService(
	lotRepo lots.Repository,
	products product.Repository,
	invoices billing.InvoiceRepository,
	payments billing.PaymentRepository,
	clk clock.Clock,
) *Service {
	return &Service{
		lots:     lotRepo,
		products: products,
		invoices: invoices,
		payments: payments,
		clock:    clk,
	}
}

// StockValuation values Available stock at catalog purchase price.
func (s *Service) StockValuation(ctx context.Context) (*Valuation, error) {
	available := lots.StatusAvailable
	all, err := s.lots.List(ctx, lots.Filter{Status: &available, Limit: listAll})
	if err != nil {
		return nil, err
	}

	type acc struct {
		name string
		qty  int64
		cost types.Money
	}
	byProduct := make(map[string]*acc)
	order := make([]string, 0)

	for _, lot := range all {
		if lot.Quantity == 0 {
			continue
		}
		key := lot.ProductID.String()
		a, ok := byProduct[key]
		if !ok {
			p, err := s.products.GetByID(ctx, lot.ProductID)
			if err != nil {
				return nil, err
			}
			a = &acc{name: p.Name, cost: p.PurchasePrice}
			byProduct[key] = a
			order = append(order, key)
		}
		a.qty += lot.Quantity
	}

	report := &Valuation{TotalValue: types.Zero()}
	for _, key := range order {
		a := byProduct[key]
		value := a.cost.Mul(types.NewMoneyFromInt(a.qty))
		report.Lines = append(report.Lines, ValuationLine{
			ProductID:   key,
			ProductName: a.name,
			Quantity:    a.qty,
			UnitCost:    a.cost,
			Value:       value,
		})
		report.TotalValue = report.TotalValue.Add(value)
	}
	return report, nil
}

// agingBounds define the overdue buckets in days past due.
var agingBounds = []struct {
	label string
	from  int
	to    int
}{
	{"current", -1 << 30, 0},
	{"1-30", 1, 30},
	{"31-60", 31, 60},
	{"61-90", 61, 90},
	{"90+", 91, 1 << 30},
}

// InvoiceAging buckets unsettled customer invoices by days overdue.
// Each bucket sums what is still owed, not the invoice face value.
func (s *Service) InvoiceAging(ctx context.Context, asOf time.Time) (*Aging, error) {
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}

	unsettled, err := s.invoices.ListUnsettled(ctx, billing.KindCustomer)
	if err != nil {
		return nil, err
	}

	remaining := make(map[string]types.Money, len(unsettled))
	for _, inv := range unsettled {
		payments, err := s.payments.ListByInvoice(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		remaining[inv.Number] = billing.Remaining(inv.Total, payments)
	}

	report := &Aging{AsOf: asOf}
	for _, b := range agingBounds {
		bucket := AgingBucket{Label: b.label, Total: types.Zero()}
		for _, inv := range unsettled {
			overdue := int(asOf.Sub(inv.DueDate).Hours() / 24)
			if overdue < b.from || overdue > b.to {
				continue
			}
			bucket.Count++
			bucket.Total = bucket.Total.Add(remaining[inv.Number])
			bucket.Invoices = append(bucket.Invoices, inv.Number)
		}
		report.Buckets = append(report.Buckets, bucket)
	}
	return report, nil
}

// CashFlow sums payments in [from, to]. Payments against customer
// invoices count as money in, supplier invoices as money out.
func (s *Service) CashFlow(ctx context.Context, from, to time.Time) (*CashFlow, error) {
	payments, err := s.payments.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &CashFlow{
		From:     from,
		To:       to,
		In:       types.Zero(),
		Out:      types.Zero(),
		ByMethod: make(map[string]types.Money),
	}
	for _, p := range payments {
		inv, err := s.invoices.GetByID(ctx, p.InvoiceID)
		if err != nil {
			return nil, err
		}
		if inv.Kind == billing.KindCustomer {
			report.In = report.In.Add(p.Amount)
		} else {
			report.Out = report.Out.Add(p.Amount)
		}

		key := string(p.Method)
		cur, ok := report.ByMethod[key]
		if !ok {
			cur = types.Zero()
		}
		report.ByMethod[key] = cur.Add(p.Amount)
	}
	report.Net = report.In.Sub(report.Out)
	return report, nil
}

// Financial computes revenue, charges and gross margin from issued
// invoices, plus actual cash received. Cancelled invoices are
// excluded.
func (s *Service) Financial(ctx context.Context) (*FinancialSummary, error) {
	summary := &FinancialSummary{
		Revenue: types.Zero(),
		Charges: types.Zero(),
		CashIn:  types.Zero(),
	}

	customer, err := s.invoices.List(ctx, billing.InvoiceFilter{Kind: billing.KindCustomer, Limit: listAll})
	if err != nil {
		return nil, err
	}
	for _, inv := range customer {
		if inv.Status == billing.StatusCancelled {
			continue
		}
		summary.Revenue = summary.Revenue.Add(inv.Total)

		payments, err := s.payments.ListByInvoice(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range payments {
			summary.CashIn = summary.CashIn.Add(p.Amount)
		}
	}

	supplier, err := s.invoices.List(ctx, billing.InvoiceFilter{Kind: billing.KindSupplier, Limit: listAll})
	if err != nil {
		return nil, err
	}
	for _, inv := range supplier {
		if inv.Status == billing.StatusCancelled {
			continue
		}
		summary.Charges = summary.Charges.Add(inv.Total)
	}

	summary.GrossMargin = summary.Revenue.Sub(summary.Charges)
	return summary, nil
}

// listAll is the page size used when a report needs the full set.
const listAll = 1_000_000
