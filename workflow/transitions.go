package workflow

import (
	"bitbucket.org/mmdatafocus/sav_backend/models"
)

// Trigger names one workflow operation gated by the transition table.
type Trigger string

const (
	TriggerStartIntervention Trigger = "StartIntervention"
	TriggerSubmitReport      Trigger = "SubmitInterventionReport"
	TriggerApproveReport     Trigger = "ApproveReport"
	TriggerCloseTicket       Trigger = "CloseTicket"
	TriggerEditTicket        Trigger = "EditTicket"
	TriggerArchiveTicket     Trigger = "ArchiveTicket"
	TriggerSettlePayment     Trigger = "SettlePayment"
)

type transitionRule struct {
	from  []models.TicketStatus
	to    models.TicketStatus
	roles []models.UserRole
}

// The single source of truth for role-gated transitions. Checked once at each
// workflow entry point instead of per-call-site role branching.
var transitionTable = map[Trigger]transitionRule{
	TriggerStartIntervention: {
		from:  []models.TicketStatus{models.TicketStatusNew},
		to:    models.TicketStatusInProgress,
		roles: []models.UserRole{models.UserRoleTechnician, models.UserRoleAgent, models.UserRoleManager, models.UserRoleAdmin},
	},
	TriggerSubmitReport: {
		// Resubmission while PendingApproval is a correction of the same report.
		from:  []models.TicketStatus{models.TicketStatusInProgress, models.TicketStatusPendingApproval},
		to:    models.TicketStatusPendingApproval,
		roles: []models.UserRole{models.UserRoleTechnician},
	},
	TriggerApproveReport: {
		from:  []models.TicketStatus{models.TicketStatusPendingApproval},
		to:    models.TicketStatusResolved,
		roles: []models.UserRole{models.UserRoleManager, models.UserRoleAdmin},
	},
	TriggerCloseTicket: {
		from:  []models.TicketStatus{models.TicketStatusResolved},
		to:    models.TicketStatusClosed,
		roles: []models.UserRole{models.UserRoleManager, models.UserRoleAdmin},
	},
	TriggerSettlePayment: {
		from:  []models.TicketStatus{models.TicketStatusResolved},
		to:    models.TicketStatusResolved,
		roles: []models.UserRole{models.UserRoleManager, models.UserRoleAdmin},
	},
	TriggerEditTicket: {
		from: []models.TicketStatus{
			models.TicketStatusNew, models.TicketStatusInProgress,
			models.TicketStatusPendingApproval, models.TicketStatusResolved,
		},
		to:    "", // metadata only, status unchanged
		roles: []models.UserRole{models.UserRoleAgent, models.UserRoleManager, models.UserRoleAdmin},
	},
	TriggerArchiveTicket: {
		from:  []models.TicketStatus{models.TicketStatusResolved, models.TicketStatusClosed},
		to:    "", // orthogonal flag, status unchanged
		roles: []models.UserRole{models.UserRoleManager, models.UserRoleAdmin},
	},
}

// RoleAllowed reports whether the role may fire the trigger at all.
func RoleAllowed(trigger Trigger, role models.UserRole) bool {
	rule, ok := transitionTable[trigger]
	if !ok {
		return false
	}
	for _, r := range rule.roles {
		if r == role {
			return true
		}
	}
	return false
}

// StatusAllowed reports whether the trigger may fire from the given status.
func StatusAllowed(trigger Trigger, from models.TicketStatus) bool {
	rule, ok := transitionTable[trigger]
	if !ok {
		return false
	}
	for _, s := range rule.from {
		if s == from {
			return true
		}
	}
	return false
}

// TargetStatus returns the status the trigger lands on, or the current status
// for metadata-only triggers.
func TargetStatus(trigger Trigger, current models.TicketStatus) models.TicketStatus {
	rule, ok := transitionTable[trigger]
	if !ok || rule.to == "" {
		return current
	}
	return rule.to
}

// RequiredRoles returns a human-readable role list for error messages.
func RequiredRoles(trigger Trigger) string {
	rule, ok := transitionTable[trigger]
	if !ok {
		return ""
	}
	out := ""
	for i, r := range rule.roles {
		if i > 0 {
			out += "|"
		}
		out += string(r)
	}
	return out
}

// checkGate validates role then status, in that order, so a caller who may
// never fire the trigger sees Forbidden rather than InvalidTransition.
func checkGate(trigger Trigger, ticket *models.Ticket, role models.UserRole) error {
	if !RoleAllowed(trigger, role) {
		return errForbidden(ticket.ID, role, RequiredRoles(trigger))
	}
	if !StatusAllowed(trigger, ticket.Status) {
		return errInvalidTransition(ticket.ID, ticket.Status, TargetStatus(trigger, ticket.Status))
	}
	return nil
}
