package models

import "errors"

type UserRole string

const (
	UserRoleAdmin      UserRole = "ADMIN"
	UserRoleManager    UserRole = "MANAGER"
	UserRoleAgent      UserRole = "AGENT"
	UserRoleTechnician UserRole = "TECHNICIAN"
)

// convert input to enum type
func ParseUserRole(str string) (UserRole, error) {
	roles := map[string]UserRole{
		"ADMIN":      UserRoleAdmin,
		"MANAGER":    UserRoleManager,
		"AGENT":      UserRoleAgent,
		"TECHNICIAN": UserRoleTechnician,
	}
	role, ok := roles[str]
	if !ok {
		return "", errors.New("invalid user role")
	}
	return role, nil
}

type TicketStatus string

const (
	TicketStatusNew             TicketStatus = "New"
	TicketStatusInProgress      TicketStatus = "InProgress"
	TicketStatusPendingApproval TicketStatus = "PendingApproval"
	TicketStatusResolved        TicketStatus = "Resolved"
	TicketStatusClosed          TicketStatus = "Closed"
)

func ParseTicketStatus(str string) (TicketStatus, error) {
	statuses := map[string]TicketStatus{
		"New":             TicketStatusNew,
		"InProgress":      TicketStatusInProgress,
		"PendingApproval": TicketStatusPendingApproval,
		"Resolved":        TicketStatusResolved,
		"Closed":          TicketStatusClosed,
	}
	status, ok := statuses[str]
	if !ok {
		return "", errors.New("invalid ticket status")
	}
	return status, nil
}

// IsTerminal reports whether no further status transition is possible.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed
}

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityNormal TicketPriority = "Normal"
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityUrgent TicketPriority = "Urgent"
)

func ParseTicketPriority(str string) (TicketPriority, error) {
	priorities := map[string]TicketPriority{
		"Low":    TicketPriorityLow,
		"Normal": TicketPriorityNormal,
		"High":   TicketPriorityHigh,
		"Urgent": TicketPriorityUrgent,
	}
	priority, ok := priorities[str]
	if !ok {
		return "", errors.New("invalid ticket priority")
	}
	return priority, nil
}

type MovementDirection string

const (
	MovementDirectionIn  MovementDirection = "IN"
	MovementDirectionOut MovementDirection = "OUT"
)

func ParseMovementDirection(str string) (MovementDirection, error) {
	switch str {
	case "IN":
		return MovementDirectionIn, nil
	case "OUT":
		return MovementDirectionOut, nil
	default:
		return "", errors.New("invalid movement direction")
	}
}

type EquipmentStatus string

const (
	EquipmentStatusRepaired      EquipmentStatus = "Repaired"
	EquipmentStatusReplaced      EquipmentStatus = "Replaced"
	EquipmentStatusAwaitingParts EquipmentStatus = "AwaitingParts"
	EquipmentStatusIrreparable   EquipmentStatus = "Irreparable"
)

func ParseEquipmentStatus(str string) (EquipmentStatus, error) {
	statuses := map[string]EquipmentStatus{
		"Repaired":      EquipmentStatusRepaired,
		"Replaced":      EquipmentStatusReplaced,
		"AwaitingParts": EquipmentStatusAwaitingParts,
		"Irreparable":   EquipmentStatusIrreparable,
	}
	status, ok := statuses[str]
	if !ok {
		return "", errors.New("invalid equipment status")
	}
	return status, nil
}

type EventType string

const (
	EventTypeTicketStatusChanged EventType = "TicketStatusChanged"
	EventTypeStockConsumed       EventType = "StockConsumed"
	EventTypeInsufficientStock   EventType = "InsufficientStock"
	EventTypeStockBelowMinimum   EventType = "StockBelowMinimum"
)
