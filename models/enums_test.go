package models

import "testing"

func TestParseUserRole_ClosedSet(t *testing.T) {
	for _, valid := range []string{"ADMIN", "MANAGER", "AGENT", "TECHNICIAN"} {
		if _, err := ParseUserRole(valid); err != nil {
			t.Errorf("ParseUserRole(%q): %v", valid, err)
		}
	}
	// Roles are a closed set: no free-text roles, no case folding.
	for _, invalid := range []string{"", "admin", "SUPERVISOR", "Technician"} {
		if _, err := ParseUserRole(invalid); err == nil {
			t.Errorf("ParseUserRole(%q) accepted an invalid role", invalid)
		}
	}
}

func TestParseTicketStatus_RejectsUnknown(t *testing.T) {
	if _, err := ParseTicketStatus("Reopened"); err == nil {
		t.Error("Reopened is not a ticket status; the machine has no reopen path")
	}
	if _, err := ParseTicketStatus("closed"); err == nil {
		t.Error("status parsing must be case sensitive")
	}
}

func TestTicketStatus_OnlyClosedIsTerminal(t *testing.T) {
	for _, s := range []TicketStatus{TicketStatusNew, TicketStatusInProgress, TicketStatusPendingApproval, TicketStatusResolved} {
		if s.IsTerminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
	if !TicketStatusClosed.IsTerminal() {
		t.Error("Closed must be terminal")
	}
}

func TestParseMovementDirection(t *testing.T) {
	if _, err := ParseMovementDirection("IN"); err != nil {
		t.Errorf("IN: %v", err)
	}
	if _, err := ParseMovementDirection("in"); err == nil {
		t.Error("direction parsing must be case sensitive")
	}
	if _, err := ParseMovementDirection("TRANSFER"); err == nil {
		t.Error("only IN and OUT exist; transfers are two movements")
	}
}
