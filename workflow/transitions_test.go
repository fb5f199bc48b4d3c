package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/sav_backend/models"
)

func ticketIn(status models.TicketStatus) *models.Ticket {
	return &models.Ticket{ID: 1, Status: status}
}

func TestTransitionTable_HappyPath(t *testing.T) {
	steps := []struct {
		trigger Trigger
		from    models.TicketStatus
		to      models.TicketStatus
		role    models.UserRole
	}{
		{TriggerStartIntervention, models.TicketStatusNew, models.TicketStatusInProgress, models.UserRoleTechnician},
		{TriggerSubmitReport, models.TicketStatusInProgress, models.TicketStatusPendingApproval, models.UserRoleTechnician},
		{TriggerApproveReport, models.TicketStatusPendingApproval, models.TicketStatusResolved, models.UserRoleManager},
		{TriggerCloseTicket, models.TicketStatusResolved, models.TicketStatusClosed, models.UserRoleManager},
	}
	for _, s := range steps {
		if err := checkGate(s.trigger, ticketIn(s.from), s.role); err != nil {
			t.Errorf("%s from %s as %s: unexpected gate error %v", s.trigger, s.from, s.role, err)
		}
		if got := TargetStatus(s.trigger, s.from); got != s.to {
			t.Errorf("%s target = %s, want %s", s.trigger, got, s.to)
		}
	}
}

func TestTransitionTable_ResubmitWhilePendingApproval(t *testing.T) {
	// A correction resubmission is legal; it stays PendingApproval.
	if err := checkGate(TriggerSubmitReport, ticketIn(models.TicketStatusPendingApproval), models.UserRoleTechnician); err != nil {
		t.Fatalf("resubmission must be allowed: %v", err)
	}
}

func TestTransitionTable_RejectsSkippedStates(t *testing.T) {
	cases := []struct {
		trigger Trigger
		from    models.TicketStatus
		role    models.UserRole
	}{
		{TriggerSubmitReport, models.TicketStatusNew, models.UserRoleTechnician},       // cannot report before starting
		{TriggerApproveReport, models.TicketStatusInProgress, models.UserRoleManager},  // cannot approve before submission
		{TriggerCloseTicket, models.TicketStatusPendingApproval, models.UserRoleAdmin}, // cannot close before approval
		{TriggerStartIntervention, models.TicketStatusClosed, models.UserRoleAdmin},    // no going back
		{TriggerCloseTicket, models.TicketStatusClosed, models.UserRoleAdmin},          // already terminal
	}
	for _, tc := range cases {
		err := checkGate(tc.trigger, ticketIn(tc.from), tc.role)
		if !IsErrorCode(err, ErrCodeInvalidTransition) {
			t.Errorf("%s from %s: err = %v, want InvalidTransition", tc.trigger, tc.from, err)
		}
	}
}

func TestTransitionTable_RoleGates(t *testing.T) {
	cases := []struct {
		trigger Trigger
		role    models.UserRole
		allowed bool
	}{
		{TriggerSubmitReport, models.UserRoleAgent, false},
		{TriggerSubmitReport, models.UserRoleManager, false}, // managers approve, they do not author reports
		{TriggerApproveReport, models.UserRoleTechnician, false},
		{TriggerApproveReport, models.UserRoleAgent, false},
		{TriggerApproveReport, models.UserRoleAdmin, true},
		{TriggerCloseTicket, models.UserRoleAgent, false},
		{TriggerEditTicket, models.UserRoleTechnician, false},
		{TriggerEditTicket, models.UserRoleAgent, true},
		{TriggerArchiveTicket, models.UserRoleAgent, false},
		{TriggerArchiveTicket, models.UserRoleManager, true},
	}
	for _, tc := range cases {
		if got := RoleAllowed(tc.trigger, tc.role); got != tc.allowed {
			t.Errorf("RoleAllowed(%s, %s) = %v, want %v", tc.trigger, tc.role, got, tc.allowed)
		}
	}
}

func TestCheckGate_RoleBeforeStatus(t *testing.T) {
	// A technician trying to approve a not-yet-submitted ticket must see
	// Forbidden, not InvalidTransition: the role can never fire the trigger.
	err := checkGate(TriggerApproveReport, ticketIn(models.TicketStatusInProgress), models.UserRoleTechnician)
	if !IsErrorCode(err, ErrCodeForbidden) {
		t.Fatalf("err = %v, want Forbidden", err)
	}
}

func TestWorkflowError_Retryable(t *testing.T) {
	if Retryable(errInsufficientStock(1, 2, 5, 3)) {
		t.Error("InsufficientStock is a business failure, not retryable")
	}
	if Retryable(errDuplicateConsumption(1, "abc")) {
		t.Error("DuplicateConsumption is a business failure, not retryable")
	}
	if !Retryable(errConcurrentModification(1)) {
		t.Error("ConcurrentModification must be retryable")
	}
}
