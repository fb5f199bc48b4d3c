package workflow

import (
	"context"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/sav_backend/config"
	"bitbucket.org/mmdatafocus/sav_backend/models"
	"github.com/shopspring/decimal"
)

// RollupTotals is one aggregation bucket. Only Resolved and Closed tickets
// carrying a financial summary contribute; everything else is in-flight work
// with no settled numbers yet.
type RollupTotals struct {
	TicketCount   int             `json:"ticket_count"`
	Revenue       decimal.Decimal `json:"revenue"`
	PartsCost     decimal.Decimal `json:"parts_cost"`
	LaborCost     decimal.Decimal `json:"labor_cost"`
	LogisticsCost decimal.Decimal `json:"logistics_cost"`
	NetMargin     decimal.Decimal `json:"net_margin"`
	MarginRate    decimal.Decimal `json:"margin_rate"`
	AvgDurationMs int64           `json:"avg_duration_ms"`
}

type TechnicianRollup struct {
	TechnicianId   int    `json:"technician_id"`
	TechnicianName string `json:"technician_name"`
	RollupTotals
}

type DailyPoint struct {
	Date string `json:"date"` // YYYY-MM-DD, settlement day (report PerformedAt)
	RollupTotals
}

type GlobalRollup struct {
	RollupTotals
	ByStatus     map[models.TicketStatus]int `json:"by_status"`
	ByTechnician []*TechnicianRollup         `json:"by_technician"`
	Daily        []*DailyPoint               `json:"daily"`
}

// marginRateScale fixes the quotient precision; revenue 0 yields rate 0
// rather than a division error.
const marginRateScale = 4

func countsTowardRollup(ticket *models.Ticket) bool {
	if ticket.Financials == nil {
		return false
	}
	return ticket.Status == models.TicketStatusResolved || ticket.Status == models.TicketStatusClosed
}

// reduceRollup folds tickets into one bucket. Pure: same tickets in, same
// totals out, regardless of slice order.
func reduceRollup(tickets []*models.Ticket) RollupTotals {
	var totals RollupTotals
	var durationSum int64
	var durationCount int64
	for _, ticket := range tickets {
		if !countsTowardRollup(ticket) {
			continue
		}
		f := ticket.Financials
		totals.TicketCount++
		totals.Revenue = totals.Revenue.Add(f.GrandTotal)
		totals.PartsCost = totals.PartsCost.Add(f.PartsCost)
		totals.LaborCost = totals.LaborCost.Add(f.LaborCost)
		totals.LogisticsCost = totals.LogisticsCost.Add(f.LogisticsCost)
		totals.NetMargin = totals.NetMargin.Add(f.NetMargin)
		if ticket.Report != nil && ticket.Report.DurationMs > 0 {
			durationSum += ticket.Report.DurationMs
			durationCount++
		}
	}
	if totals.Revenue.IsPositive() {
		totals.MarginRate = totals.NetMargin.DivRound(totals.Revenue, marginRateScale)
	}
	if durationCount > 0 {
		totals.AvgDurationMs = durationSum / durationCount
	}
	return totals
}

func statusCounts(tickets []*models.Ticket) map[models.TicketStatus]int {
	counts := make(map[models.TicketStatus]int)
	for _, ticket := range tickets {
		counts[ticket.Status]++
	}
	return counts
}

// technicianRollups groups settled tickets by assigned technician, ordered by
// technician id for a stable response shape.
func technicianRollups(tickets []*models.Ticket, names map[int]string) []*TechnicianRollup {
	grouped := make(map[int][]*models.Ticket)
	var order []int
	for _, ticket := range tickets {
		if !countsTowardRollup(ticket) || ticket.AssignedTechnicianId == nil {
			continue
		}
		id := *ticket.AssignedTechnicianId
		if _, seen := grouped[id]; !seen {
			order = append(order, id)
		}
		grouped[id] = append(grouped[id], ticket)
	}
	sort.Ints(order)
	rollups := make([]*TechnicianRollup, 0, len(order))
	for _, id := range order {
		rollups = append(rollups, &TechnicianRollup{
			TechnicianId:   id,
			TechnicianName: names[id],
			RollupTotals:   reduceRollup(grouped[id]),
		})
	}
	return rollups
}

// dailySeries buckets settled tickets by the day the report was performed.
func dailySeries(tickets []*models.Ticket) []*DailyPoint {
	grouped := make(map[string][]*models.Ticket)
	var order []string
	for _, ticket := range tickets {
		if !countsTowardRollup(ticket) || ticket.Report == nil {
			continue
		}
		day := ticket.Report.PerformedAt.UTC().Format("2006-01-02")
		if _, seen := grouped[day]; !seen {
			order = append(order, day)
		}
		grouped[day] = append(grouped[day], ticket)
	}
	sort.Strings(order)
	points := make([]*DailyPoint, 0, len(order))
	for _, day := range order {
		points = append(points, &DailyPoint{Date: day, RollupTotals: reduceRollup(grouped[day])})
	}
	return points
}

// ReportSummary builds the global rollup for the [from, to) window.
// The window filters on ticket creation time, matching the list endpoint.
func ReportSummary(ctx context.Context, from time.Time, to time.Time, showroomId *int) (*GlobalRollup, error) {
	tickets, err := models.ListTickets(ctx, models.TicketFilter{
		From:       &from,
		To:         &to,
		ShowroomId: showroomId,
	})
	if err != nil {
		return nil, err
	}

	names, err := technicianNames(ctx, tickets)
	if err != nil {
		return nil, err
	}

	return &GlobalRollup{
		RollupTotals: reduceRollup(tickets),
		ByStatus:     statusCounts(tickets),
		ByTechnician: technicianRollups(tickets, names),
		Daily:        dailySeries(tickets),
	}, nil
}

// TechnicianSummary builds one technician's rollup for the [from, to) window.
func TechnicianSummary(ctx context.Context, technicianId int, from time.Time, to time.Time) (*TechnicianRollup, error) {
	tickets, err := models.ListTickets(ctx, models.TicketFilter{
		TechnicianId: &technicianId,
		From:         &from,
		To:           &to,
	})
	if err != nil {
		return nil, err
	}
	names, err := technicianNames(ctx, tickets)
	if err != nil {
		return nil, err
	}
	return &TechnicianRollup{
		TechnicianId:   technicianId,
		TechnicianName: names[technicianId],
		RollupTotals:   reduceRollup(tickets),
	}, nil
}

func technicianNames(ctx context.Context, tickets []*models.Ticket) (map[int]string, error) {
	ids := make([]int, 0)
	seen := make(map[int]bool)
	for _, ticket := range tickets {
		if ticket.AssignedTechnicianId == nil || seen[*ticket.AssignedTechnicianId] {
			continue
		}
		seen[*ticket.AssignedTechnicianId] = true
		ids = append(ids, *ticket.AssignedTechnicianId)
	}
	names := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	db := config.GetDB()
	var users []*models.User
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, user := range users {
		names[user.ID] = user.Name
	}
	return names, nil
}
