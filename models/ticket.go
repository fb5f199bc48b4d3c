package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/sav_backend/config"
	"bitbucket.org/mmdatafocus/sav_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UsedPart is a report line item. PartId may be nil when the technician typed
// a free-text part name that is not catalog-linked; only lines with a
// resolvable PartId and quantity > 0 participate in ledger consumption.
type UsedPart struct {
	PartId    *int            `json:"part_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// InterventionReport is the technician's structured write-up, embedded in the
// ticket and persisted with it as one atomic snapshot.
type InterventionReport struct {
	EquipmentStatus    EquipmentStatus `json:"equipment_status"`
	StartedAt          *time.Time      `json:"started_at"`
	DurationMs         int64           `json:"duration_ms"`
	DetailedDiagnostic string          `json:"detailed_diagnostic"`
	RepairProcedure    string          `json:"repair_procedure"`
	ActionsTaken       []string        `json:"actions_taken"`
	PartsUsed          []UsedPart      `json:"parts_used"`
	IsWarrantyValid    *bool           `json:"is_warranty_valid"`
	InternalNotes      string          `json:"internal_notes"`
	PerformedAt        time.Time       `json:"performed_at"`
}

// FinancialDetail is stamped on approval and derived, never edited in place
// once computed.
type FinancialDetail struct {
	PartsTotal    decimal.Decimal `json:"parts_total"`
	PartsCost     decimal.Decimal `json:"parts_cost"`
	LaborTotal    decimal.Decimal `json:"labor_total"`
	LaborCost     decimal.Decimal `json:"labor_cost"`
	LogisticsCost decimal.Decimal `json:"logistics_cost"`
	TravelFee     decimal.Decimal `json:"travel_fee"`
	Discount      decimal.Decimal `json:"discount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	NetMargin     decimal.Decimal `json:"net_margin"`
	IsPaid        *bool           `json:"is_paid"`
}

// Ticket is a single customer service case. Status transitions are owned by
// workflow.TicketWorkflow; Version is the optimistic-concurrency token every
// state-changing call compares and bumps.
type Ticket struct {
	ID                   int                 `gorm:"primary_key" json:"id"`
	CustomerName         string              `gorm:"size:255;not null" json:"customer_name" binding:"required"`
	CustomerPhone        string              `gorm:"size:20" json:"customer_phone"`
	ShowroomId           int                 `gorm:"not null;index" json:"showroom_id" binding:"required"`
	Category             string              `gorm:"size:100;index" json:"category"`
	Status               TicketStatus        `gorm:"size:20;not null;index" json:"status"`
	Priority             TicketPriority      `gorm:"size:10;not null" json:"priority"`
	AssignedTechnicianId *int                `gorm:"index" json:"assigned_technician_id"`
	Description          string              `gorm:"type:text" json:"description"`
	Report               *InterventionReport `gorm:"serializer:json" json:"report"`
	Financials           *FinancialDetail    `gorm:"serializer:json" json:"financials"`
	IsArchived           *bool               `gorm:"not null;default:false" json:"is_archived"`
	Version              int                 `gorm:"not null;default:0" json:"version"`
	CreatedAt            time.Time           `gorm:"autoCreateTime" json:"created_at"`
	LastUpdate           time.Time           `gorm:"autoUpdateTime" json:"last_update"`
}

type NewTicket struct {
	CustomerName         string         `json:"customer_name" binding:"required"`
	CustomerPhone        string         `json:"customer_phone"`
	ShowroomId           int            `json:"showroom_id" binding:"required"`
	Category             string         `json:"category"`
	Priority             TicketPriority `json:"priority"`
	AssignedTechnicianId *int           `json:"assigned_technician_id"`
	Description          string         `json:"description"`
}

// TicketEdit carries the metadata fields intake/managers may change without
// touching the status machine. Reassignment is manager/admin only.
type TicketEdit struct {
	CustomerName         *string         `json:"customer_name"`
	CustomerPhone        *string         `json:"customer_phone"`
	Category             *string         `json:"category"`
	Priority             *TicketPriority `json:"priority"`
	Description          *string         `json:"description"`
	AssignedTechnicianId *int            `json:"assigned_technician_id"`
}

// CreateTicket is the intake path. Tickets always start in New.
func CreateTicket(ctx context.Context, input *NewTicket) (*Ticket, error) {
	db := config.GetDB()

	phone := input.CustomerPhone
	if phone != "" {
		normalized, err := utils.NormalizePhoneNumber(phone, utils.CountryCode)
		if err != nil {
			return nil, err
		}
		phone = normalized
	}
	if err := utils.ValidateResourceId[Showroom](ctx, input.ShowroomId); err != nil {
		return nil, err
	}
	if input.AssignedTechnicianId != nil {
		if err := utils.ValidateResourceId[User](ctx, *input.AssignedTechnicianId); err != nil {
			return nil, err
		}
	}

	priority := input.Priority
	if priority == "" {
		priority = TicketPriorityNormal
	} else if _, err := ParseTicketPriority(string(priority)); err != nil {
		return nil, err
	}

	ticket := Ticket{
		CustomerName:         input.CustomerName,
		CustomerPhone:        phone,
		ShowroomId:           input.ShowroomId,
		Category:             input.Category,
		Status:               TicketStatusNew,
		Priority:             priority,
		AssignedTechnicianId: input.AssignedTechnicianId,
		Description:          input.Description,
		IsArchived:           utils.NewFalse(),
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ticket).Error; err != nil {
			return err
		}
		description := "Ticket created for " + ticket.CustomerName + "."
		return createHistory(tx, "C", ticket.ID, "Ticket", nil, ticket, description)
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetTicket fetches a ticket by id.
// (may return RecordNotFound error)
func GetTicket(ctx context.Context, id int) (*Ticket, error) {
	return utils.FetchSingleModel[Ticket](ctx, id)
}

type TicketFilter struct {
	Status       *TicketStatus
	TechnicianId *int
	ShowroomId   *int
	From         *time.Time
	To           *time.Time
	Archived     *bool
}

func ListTickets(ctx context.Context, filter TicketFilter) ([]*Ticket, error) {
	db := config.GetDB()
	q := db.WithContext(ctx).Model(&Ticket{})
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.TechnicianId != nil {
		q = q.Where("assigned_technician_id = ?", *filter.TechnicianId)
	}
	if filter.ShowroomId != nil {
		q = q.Where("showroom_id = ?", *filter.ShowroomId)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}
	if filter.Archived != nil {
		q = q.Where("is_archived = ?", *filter.Archived)
	}
	var tickets []*Ticket
	if err := q.Order("id ASC").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}
