package domain

import "strings"

// Category classifies tickets. Employees are grouped by the same values, so a
// Category doubles as a department.
type Category string

const (
	CategoryIT             Category = "IT"
	CategoryHR             Category = "HR"
	CategoryFinance        Category = "Finance"
	CategoryFacilities     Category = "Facilities"
	CategoryMaintenance    Category = "Maintenance"
	CategorySecurity       Category = "Security"
	CategoryTransport      Category = "Transport"
	CategorySanitation     Category = "Sanitation"
	CategoryWaterSupply    Category = "Water Supply"
	CategoryElectricity    Category = "Electricity"
	CategoryRoads          Category = "Roads"
	CategoryHealth         Category = "Health"
	CategoryEducation      Category = "Education"
	CategoryAdministration Category = "Administration"
	CategoryOther          Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryIT,
	CategoryHR,
	CategoryFinance,
	CategoryFacilities,
	CategoryMaintenance,
	CategorySecurity,
	CategoryTransport,
	CategorySanitation,
	CategoryWaterSupply,
	CategoryElectricity,
	CategoryRoads,
	CategoryHealth,
	CategoryEducation,
	CategoryAdministration,
	CategoryOther,
}

// NormalizeCategory matches raw case-insensitively against the category set.
// Anything unrecognised becomes CategoryOther.
func NormalizeCategory(raw string) Category {
	trimmed := strings.TrimSpace(raw)
	for _, c := range Categories {
		if strings.EqualFold(string(c), trimmed) {
			return c
		}
	}
	return CategoryOther
}

// ParseCategory is the strict variant of NormalizeCategory.
func ParseCategory(raw string) (Category, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, c := range Categories {
		if strings.EqualFold(string(c), trimmed) {
			return c, true
		}
	}
	return "", false
}

// Priorities lists ticket priorities from lowest to highest.
var Priorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityUrgent,
}

// ParsePriority resolves raw case-insensitively. Empty input yields Medium.
func ParsePriority(raw string) (TicketPriority, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TicketPriorityMedium, true
	}
	for _, p := range Priorities {
		if strings.EqualFold(string(p), trimmed) {
			return p, true
		}
	}
	return "", false
}

// Statuses lists ticket statuses in lifecycle order.
var Statuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusReopened,
}

// ParseStatus resolves raw case-insensitively; "in-progress" and
// "in_progress" are accepted for In Progress.
func ParseStatus(raw string) (TicketStatus, bool) {
	trimmed := strings.TrimSpace(raw)
	folded := strings.NewReplacer("-", " ", "_", " ").Replace(trimmed)
	for _, s := range Statuses {
		if strings.EqualFold(string(s), folded) {
			return s, true
		}
	}
	return "", false
}

// Roles lists user roles.
var Roles = []Role{RoleCitizen, RoleEmployee, RoleAdmin}

// ParseRole resolves raw case-insensitively.
func ParseRole(raw string) (Role, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, r := range Roles {
		if strings.EqualFold(string(r), trimmed) {
			return r, true
		}
	}
	return "", false
}
