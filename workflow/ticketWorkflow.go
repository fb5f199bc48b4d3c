package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/sav_backend/config"
	"bitbucket.org/mmdatafocus/sav_backend/models"
	"bitbucket.org/mmdatafocus/sav_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const submitReportHandler = "SubmitInterventionReport"

func actorRole(ctx context.Context) (models.UserRole, error) {
	roleStr, ok := utils.GetRoleFromContext(ctx)
	if !ok {
		return "", errors.New("actor role is required")
	}
	return models.ParseUserRole(roleStr)
}

func actorId(ctx context.Context) (int, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return 0, errors.New("actor id is required")
	}
	return userId, nil
}

// saveTicketCAS persists the ticket snapshot with an optimistic
// compare-and-swap on Version. Losing a race returns
// ConcurrentModification; the caller's transaction rolls back untouched.
func saveTicketCAS(tx *gorm.DB, ticket *models.Ticket, expectedVersion int) error {
	ticket.Version = expectedVersion + 1
	ticket.LastUpdate = time.Now().UTC()
	res := tx.Model(&models.Ticket{}).
		Where("id = ? AND version = ?", ticket.ID, expectedVersion).
		Select("status", "assigned_technician_id", "report", "financials",
			"customer_name", "customer_phone", "category", "priority",
			"description", "is_archived", "version", "last_update").
		Updates(ticket)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errConcurrentModification(ticket.ID)
	}
	return nil
}

// StartIntervention moves a New ticket to InProgress. A technician
// self-assigns an unassigned ticket; a technician may not grab a ticket
// assigned to someone else.
func StartIntervention(ctx context.Context, ticketId int) (*models.Ticket, error) {
	db := config.GetDB()

	role, err := actorRole(ctx)
	if err != nil {
		return nil, err
	}
	userId, err := actorId(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := models.GetTicket(ctx, ticketId)
	if err != nil {
		return nil, err
	}
	if err := checkGate(TriggerStartIntervention, ticket, role); err != nil {
		return nil, err
	}
	if role == models.UserRoleTechnician &&
		ticket.AssignedTechnicianId != nil && *ticket.AssignedTechnicianId != userId {
		return nil, errForbidden(ticketId, role, "assigned technician")
	}

	oldTicket := *ticket
	if ticket.AssignedTechnicianId == nil && role == models.UserRoleTechnician {
		ticket.AssignedTechnicianId = &userId
	}
	now := time.Now().UTC()
	if ticket.Report == nil {
		ticket.Report = &models.InterventionReport{StartedAt: &now}
	} else if ticket.Report.StartedAt == nil {
		ticket.Report.StartedAt = &now
	}
	ticket.Status = models.TicketStatusInProgress

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveTicketCAS(tx, ticket, oldTicket.Version); err != nil {
			return err
		}
		description := "Intervention started."
		if err := models.CreateHistory(tx, "U", ticket.ID, "Ticket", oldTicket, ticket, description); err != nil {
			return err
		}
		return models.QueueNotification(ctx, tx, models.EventTypeTicketStatusChanged, ticket.ID, 0, statusChangePayload(oldTicket.Status, ticket.Status))
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

type statusChange struct {
	From models.TicketStatus `json:"from"`
	To   models.TicketStatus `json:"to"`
}

func statusChangePayload(from, to models.TicketStatus) statusChange {
	return statusChange{From: from, To: to}
}

// SubmitInterventionReport validates and persists the technician's report,
// consumes the declared parts exactly once per report content, and moves the
// ticket to PendingApproval. A resubmission while PendingApproval is a
// correction: unchanged content is a ledger no-op, changed content consumes
// under a new key.
func SubmitInterventionReport(ctx context.Context, ticketId int, report *models.InterventionReport) (*models.Ticket, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	role, err := actorRole(ctx)
	if err != nil {
		return nil, err
	}
	userId, err := actorId(ctx)
	if err != nil {
		return nil, err
	}
	userName, _ := utils.GetUserNameFromContext(ctx)

	ticket, err := models.GetTicket(ctx, ticketId)
	if err != nil {
		return nil, err
	}
	if err := checkGate(TriggerSubmitReport, ticket, role); err != nil {
		return nil, err
	}
	if ticket.AssignedTechnicianId == nil || *ticket.AssignedTechnicianId != userId {
		return nil, errForbidden(ticketId, role, "assigned technician")
	}

	if report == nil || report.EquipmentStatus == "" {
		return nil, errIncompleteReport(ticketId, "equipment status is required")
	}
	if _, err := models.ParseEquipmentStatus(string(report.EquipmentStatus)); err != nil {
		return nil, errIncompleteReport(ticketId, err.Error())
	}

	normalized := NormalizeReport(report)
	now := time.Now().UTC()
	if normalized.StartedAt == nil && ticket.Report != nil {
		normalized.StartedAt = ticket.Report.StartedAt
	}
	normalized.PerformedAt = now
	if normalized.DurationMs == 0 && normalized.StartedAt != nil {
		normalized.DurationMs = now.Sub(*normalized.StartedAt).Milliseconds()
	}
	reportHash := ReportHash(normalized)

	// Best-effort early serialization; correctness comes from the version CAS
	// and the durable idempotency key below.
	lock := acquireTicketLock(ctx, ticketId)
	defer releaseTicketLock(ctx, lock)

	oldTicket := *ticket
	ticket.Report = normalized
	ticket.Status = models.TicketStatusPendingApproval

	var movements []*models.StockMovement
	var partsAfter []*models.Part
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skip, err := BeginIdempotency(tx, ticketId, submitReportHandler, reportHash)
		if err != nil {
			if errors.Is(err, ErrIdempotencyInProgress) {
				return errConcurrentModification(ticketId)
			}
			return err
		}
		if !skip {
			movements, partsAfter, err = consumeBatch(tx, logger, consumableLines(normalized), ConsumeContext{
				TicketId:        ticketId,
				IdempotencyKey:  reportHash,
				PerformedBy:     userId,
				PerformedByName: userName,
			})
			if err != nil {
				// The key row exists but the movements do not: a retried call
				// after a timeout with unknown outcome reconciles here.
				if IsErrorCode(err, ErrCodeDuplicateConsumption) {
					movements, partsAfter = nil, nil
				} else {
					_ = MarkIdempotencyFailed(tx, ticketId, submitReportHandler, reportHash, err)
					return err
				}
			}
		}

		if err := saveTicketCAS(tx, ticket, oldTicket.Version); err != nil {
			return err
		}
		if err := MarkIdempotencySucceeded(tx, ticketId, submitReportHandler, reportHash); err != nil {
			return err
		}
		description := "Intervention report submitted."
		if err := models.CreateHistory(tx, "U", ticket.ID, "Ticket", oldTicket, ticket, description); err != nil {
			return err
		}
		if err := models.QueueNotification(ctx, tx, models.EventTypeTicketStatusChanged, ticket.ID, 0, statusChangePayload(oldTicket.Status, ticket.Status)); err != nil {
			return err
		}
		for _, movement := range movements {
			if err := models.QueueNotification(ctx, tx, models.EventTypeStockConsumed, ticket.ID, movement.PartId, movement); err != nil {
				return err
			}
		}
		if config.LowStockAlertsEnabled() {
			for _, part := range partsAfter {
				if part.CurrentStock < part.MinStock {
					if err := models.QueueNotification(ctx, tx, models.EventTypeStockBelowMinimum, ticket.ID, part.ID, part); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		if IsErrorCode(err, ErrCodeInsufficientStock) {
			// The batch rolled back whole; the alert still has to reach the
			// actor, so it is queued outside the failed transaction.
			queueErr := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				return models.QueueNotification(ctx, tx, models.EventTypeInsufficientStock, ticketId, failedPartId(err), err.Error())
			})
			if queueErr != nil {
				config.LogError(logger, "ticketWorkflow.go", "SubmitInterventionReport", "QueueInsufficientStock", ticketId, queueErr)
			}
		}
		return nil, err
	}

	for _, movement := range movements {
		if cacheErr := utils.RemoveRedis[models.Part](movement.PartId); cacheErr != nil {
			config.LogError(logger, "ticketWorkflow.go", "SubmitInterventionReport", "RemovePartCache", movement.PartId, cacheErr)
		}
	}
	return ticket, nil
}

func failedPartId(err error) int {
	var wErr *WorkflowError
	if errors.As(err, &wErr) {
		return wErr.PartId
	}
	return 0
}

// ApproveReport moves a PendingApproval ticket to Resolved and stamps its
// financial summary. Parts revenue/cost derive from the report lines; the
// approving manager supplies the labor/logistics/travel pricing. Financials
// already present on the ticket are kept as-is.
func ApproveReport(ctx context.Context, ticketId int, pricing *FinancialInput) (*models.Ticket, error) {
	db := config.GetDB()

	role, err := actorRole(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := models.GetTicket(ctx, ticketId)
	if err != nil {
		return nil, err
	}
	if err := checkGate(TriggerApproveReport, ticket, role); err != nil {
		return nil, err
	}

	oldTicket := *ticket
	if ticket.Financials == nil {
		input := FinancialInput{}
		if pricing != nil {
			input = *pricing
		}
		if input.PartsTotal.IsZero() && input.PartsCost.IsZero() {
			costs, err := catalogCosts(ctx, ticket.Report)
			if err != nil {
				return nil, err
			}
			input.PartsTotal, input.PartsCost = reportPartsTotals(ticket.Report, costs)
		}
		financials, err := ComputeFinancials(input)
		if err != nil {
			return nil, err
		}
		ticket.Financials = financials
	}
	ticket.Status = models.TicketStatusResolved

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveTicketCAS(tx, ticket, oldTicket.Version); err != nil {
			return err
		}
		description := "Intervention report approved."
		if err := models.CreateHistory(tx, "U", ticket.ID, "Ticket", oldTicket, ticket, description); err != nil {
			return err
		}
		return models.QueueNotification(ctx, tx, models.EventTypeTicketStatusChanged, ticket.ID, 0, statusChangePayload(oldTicket.Status, ticket.Status))
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func catalogCosts(ctx context.Context, report *models.InterventionReport) (map[int]decimal.Decimal, error) {
	costs := make(map[int]decimal.Decimal)
	if report == nil {
		return costs, nil
	}
	for _, line := range report.PartsUsed {
		if line.PartId == nil || *line.PartId <= 0 {
			continue
		}
		if _, ok := costs[*line.PartId]; ok {
			continue
		}
		part, err := models.GetPart(ctx, *line.PartId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				continue
			}
			return nil, err
		}
		costs[part.ID] = part.UnitCost
	}
	return costs, nil
}

// SettlePayment marks a Resolved ticket's invoice as paid. Closing is a
// separate, deliberate step.
func SettlePayment(ctx context.Context, ticketId int) (*models.Ticket, error) {
	db := config.GetDB()

	role, err := actorRole(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := models.GetTicket(ctx, ticketId)
	if err != nil {
		return nil, err
	}
	if err := checkGate(TriggerSettlePayment, ticket, role); err != nil {
		return nil, err
	}
	if ticket.Financials == nil {
		return nil, errPaymentPending(ticketId)
	}

	oldTicket := *ticket
	financials := *ticket.Financials
	financials.IsPaid = utils.NewTrue()
	ticket.Financials = &financials

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveTicketCAS(tx, ticket, oldTicket.Version); err != nil {
			return err
		}
		description := "Payment settled."
		return models.CreateHistory(tx, "U", ticket.ID, "Ticket", oldTicket, ticket, description)
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// CloseTicket finalizes a Resolved ticket once its invoice is settled.
func CloseTicket(ctx context.Context, ticketId int) (*models.Ticket, error) {
	db := config.GetDB()

	role, err := actorRole(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := models.GetTicket(ctx, ticketId)
	if err != nil {
		return nil, err
	}
	if err := checkGate(TriggerCloseTicket, ticket, role); err != nil {
		return nil, err
	}
	if ticket.Financials == nil || ticket.Financials.IsPaid == nil || !*ticket.Financials.IsPaid {
		return nil, errPaymentPending(ticketId)
	}

	oldTicket := *ticket
	ticket.Status = models.TicketStatusClosed

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveTicketCAS(tx, ticket, oldTicket.Version); err != nil {
			return err
		}
		description := "Ticket closed."
		if err := models.CreateHistory(tx, "U", ticket.ID, "Ticket", oldTicket, ticket, description); err != nil {
			return err
		}
		return models.QueueNotification(ctx, tx, models.EventTypeTicketStatusChanged, ticket.ID, 0, statusChangePayload(oldTicket.Status, ticket.Status))
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// EditTicket changes customer/product metadata without touching the status
// machine. Managers and admins may also reassign the technician here, so a
// ticket started by intake staff can still receive a report. A Closed ticket
// is locked; only an admin may edit it, and that override is always audited.
func EditTicket(ctx context.Context, ticketId int, edit *models.TicketEdit) (*models.Ticket, error) {
	db := config.GetDB()

	role, err := actorRole(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := models.GetTicket(ctx, ticketId)
	if err != nil {
		return nil, err
	}

	adminOverride := false
	if ticket.Status.IsTerminal() {
		if role != models.UserRoleAdmin {
			return nil, errTicketLocked(ticketId)
		}
		adminOverride = true
	} else if err := checkGate(TriggerEditTicket, ticket, role); err != nil {
		return nil, err
	}

	oldTicket := *ticket
	if edit.CustomerName != nil {
		ticket.CustomerName = *edit.CustomerName
	}
	if edit.CustomerPhone != nil {
		phone := *edit.CustomerPhone
		if phone != "" {
			phone, err = utils.NormalizePhoneNumber(phone, utils.CountryCode)
			if err != nil {
				return nil, err
			}
		}
		ticket.CustomerPhone = phone
	}
	if edit.Category != nil {
		ticket.Category = *edit.Category
	}
	if edit.Priority != nil {
		if _, err := models.ParseTicketPriority(string(*edit.Priority)); err != nil {
			return nil, err
		}
		ticket.Priority = *edit.Priority
	}
	if edit.Description != nil {
		ticket.Description = *edit.Description
	}
	if edit.AssignedTechnicianId != nil {
		if role != models.UserRoleManager && role != models.UserRoleAdmin {
			return nil, errForbidden(ticketId, role, "MANAGER|ADMIN")
		}
		if err := utils.ValidateResourceId[models.User](ctx, *edit.AssignedTechnicianId); err != nil {
			return nil, err
		}
		ticket.AssignedTechnicianId = edit.AssignedTechnicianId
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveTicketCAS(tx, ticket, oldTicket.Version); err != nil {
			return err
		}
		description := "Ticket metadata edited."
		if adminOverride {
			description = "Ticket metadata edited after closure (admin override)."
		}
		return models.CreateHistory(tx, "U", ticket.ID, "Ticket", oldTicket, ticket, description)
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// ArchiveTicket flips the orthogonal archive flag. Tickets with financial
// history are archived, never hard-deleted.
func ArchiveTicket(ctx context.Context, ticketId int) (*models.Ticket, error) {
	db := config.GetDB()

	role, err := actorRole(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := models.GetTicket(ctx, ticketId)
	if err != nil {
		return nil, err
	}
	if !RoleAllowed(TriggerArchiveTicket, role) {
		return nil, errForbidden(ticketId, role, RequiredRoles(TriggerArchiveTicket))
	}
	if !StatusAllowed(TriggerArchiveTicket, ticket.Status) {
		return nil, errInvalidTransition(ticketId, ticket.Status, ticket.Status)
	}

	oldTicket := *ticket
	ticket.IsArchived = utils.NewTrue()

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveTicketCAS(tx, ticket, oldTicket.Version); err != nil {
			return err
		}
		description := "Ticket archived."
		return models.CreateHistory(tx, "U", ticket.ID, "Ticket", oldTicket, ticket, description)
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}
