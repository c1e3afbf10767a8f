package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/store"
)

var ErrInvalidDateRange = errors.New("invalid date range")

const dateLayout = "2006-01-02"

// ReportService aggregates closed orders into sales figures. It only reads;
// a just-closed order racing the scan simply lands in the next request.
type ReportService struct {
	store store.Store
}

// NewReportService creates a new ReportService.
func NewReportService(st store.Store) *ReportService {
	return &ReportService{store: st}
}

// ItemStats is one menu line aggregated across the range, keyed by the name
// snapshot on the order item.
type ItemStats struct {
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// WaiterStats aggregates per waiter, keyed by the snapshot taken at order
// creation so renamed or deleted accounts keep their history.
type WaiterStats struct {
	WaiterID      uuid.UUID       `json:"waiter_id"`
	WaiterName    string          `json:"waiter_name"`
	Orders        int             `json:"orders"`
	Revenue       decimal.Decimal `json:"revenue"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
}

// Summary is the sales report for a date range.
type Summary struct {
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	TotalOrders   int             `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	TopItems      []ItemStats     `json:"top_items"`
	Waiters       []WaiterStats   `json:"waiters"`
}

// EndOfDay extends Summary with the cash-up figures: takings bucketed by
// payment method and what was voided.
type EndOfDay struct {
	Summary
	PaymentTotals      map[string]decimal.Decimal `json:"payment_totals"`
	CanceledItemCount  int64                      `json:"canceled_item_count"`
	CanceledItemAmount decimal.Decimal            `json:"canceled_item_amount"`
}

// Summarize builds the sales summary for [startDate, endDate], dates in
// YYYY-MM-DD. Day boundaries are taken in the tenant's timezone: the range
// runs from startDate 00:00:00 through endDate 23:59:59 local time.
func (s *ReportService) Summarize(ctx context.Context, tenantID uuid.UUID, startDate, endDate string) (*Summary, error) {
	orders, err := s.closedOrders(ctx, tenantID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	summary := buildSummary(orders, startDate, endDate)
	return &summary, nil
}

// EndOfDay builds the extended cash-up report over the same scan.
func (s *ReportService) EndOfDay(ctx context.Context, tenantID uuid.UUID, startDate, endDate string) (*EndOfDay, error) {
	orders, err := s.closedOrders(ctx, tenantID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	report := &EndOfDay{
		Summary:            buildSummary(orders, startDate, endDate),
		PaymentTotals:      make(map[string]decimal.Decimal),
		CanceledItemAmount: decimal.Zero,
	}
	for _, method := range []string{enum.PaymentMethodCash, enum.PaymentMethodCard, enum.PaymentMethodTransfer} {
		report.PaymentTotals[method] = decimal.Zero
	}

	for _, o := range orders {
		for _, p := range o.Payments {
			report.PaymentTotals[p.Method] = report.PaymentTotals[p.Method].Add(p.Amount)
		}
		for _, it := range o.Items {
			if it.Status != enum.ItemStatusCanceled {
				continue
			}
			report.CanceledItemCount += int64(it.Quantity)
			report.CanceledItemAmount = report.CanceledItemAmount.Add(
				it.UnitPrice.Mul(decimal.NewFromInt32(it.Quantity)))
		}
	}
	return report, nil
}

func (s *ReportService) closedOrders(ctx context.Context, tenantID uuid.UUID, startDate, endDate string) ([]*store.Order, error) {
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, mapStoreErr(err, ErrTenantNotFound)
	}

	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		loc = time.UTC
	}

	start, err := time.ParseInLocation(dateLayout, startDate, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: start %q", ErrInvalidDateRange, startDate)
	}
	endDay, err := time.ParseInLocation(dateLayout, endDate, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: end %q", ErrInvalidDateRange, endDate)
	}
	if endDay.Before(start) {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidDateRange)
	}
	end := endDay.Add(24*time.Hour - time.Second)

	return s.store.ListClosedOrdersBetween(ctx, tenantID, start, end)
}

func buildSummary(orders []*store.Order, startDate, endDate string) Summary {
	summary := Summary{
		StartDate:     startDate,
		EndDate:       endDate,
		TotalOrders:   len(orders),
		TotalRevenue:  decimal.Zero,
		AverageTicket: decimal.Zero,
		TopItems:      []ItemStats{},
		Waiters:       []WaiterStats{},
	}

	items := make(map[string]*ItemStats)
	waiters := make(map[uuid.UUID]*WaiterStats)

	for _, o := range orders {
		revenue := o.ActiveSubtotal()
		summary.TotalRevenue = summary.TotalRevenue.Add(revenue)

		w, ok := waiters[o.WaiterID]
		if !ok {
			w = &WaiterStats{WaiterID: o.WaiterID, WaiterName: o.WaiterName, Revenue: decimal.Zero}
			waiters[o.WaiterID] = w
		}
		w.Orders++
		w.Revenue = w.Revenue.Add(revenue)

		for _, it := range o.Items {
			if it.Status == enum.ItemStatusCanceled {
				continue
			}
			stats, ok := items[it.Name]
			if !ok {
				stats = &ItemStats{Name: it.Name, Revenue: decimal.Zero}
				items[it.Name] = stats
			}
			stats.Quantity += int64(it.Quantity)
			stats.Revenue = stats.Revenue.Add(it.UnitPrice.Mul(decimal.NewFromInt32(it.Quantity)))
		}
	}

	if summary.TotalOrders > 0 {
		summary.AverageTicket = summary.TotalRevenue.
			DivRound(decimal.NewFromInt(int64(summary.TotalOrders)), 2)
	}

	for _, stats := range items {
		summary.TopItems = append(summary.TopItems, *stats)
	}
	sort.Slice(summary.TopItems, func(i, j int) bool {
		a, b := summary.TopItems[i], summary.TopItems[j]
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.Name < b.Name
	})
	if len(summary.TopItems) > 5 {
		summary.TopItems = summary.TopItems[:5]
	}

	for _, w := range waiters {
		if w.Orders > 0 {
			w.AverageTicket = w.Revenue.DivRound(decimal.NewFromInt(int64(w.Orders)), 2)
		}
		summary.Waiters = append(summary.Waiters, *w)
	}
	sort.Slice(summary.Waiters, func(i, j int) bool {
		a, b := summary.Waiters[i], summary.Waiters[j]
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.WaiterName < b.WaiterName
	})

	return summary
}
