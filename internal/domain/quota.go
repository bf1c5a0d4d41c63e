// Package domain contains core business types and interfaces.
//
// This file defines usage reporting types for quota categories.
package domain

// CategoryUsage is one category's consumption against its plan limit.
type CategoryUsage struct {
	Category QuotaCategory `json:"category"`
	Used     int64         `json:"used"`
	Limit    int64         `json:"limit"`
}

// Remaining returns how many more actions the limit allows, never below zero.
func (u CategoryUsage) Remaining() int64 {
	if u.Used >= u.Limit {
		return 0
	}
	return u.Limit - u.Used
}

// Exhausted reports whether the next gated action would be denied.
func (u CategoryUsage) Exhausted() bool {
	return u.Used >= u.Limit
}

// QuotaUsage represents an actor's current usage across all quota categories.
type QuotaUsage struct {
	PlanName   string
	Limits     PlanLimits
	Categories []CategoryUsage
}

// For returns the usage entry for a category.
func (q *QuotaUsage) For(c QuotaCategory) (CategoryUsage, bool) {
	for _, u := range q.Categories {
		if u.Category == c {
			return u, true
		}
	}
	return CategoryUsage{}, false
}

// QuotaCategories lists the counted categories in display order.
var QuotaCategories = []QuotaCategory{QuotaJobPosts, QuotaInvitations, QuotaContracts}
