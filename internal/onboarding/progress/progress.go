// Package progress evaluates how far a company got through onboarding.
// Everything here is pure: facts in, steps and status out.
package progress

import (
	"math"
	"strings"
	"time"
)

// StepID identifies one onboarding milestone.
type StepID string

const (
	StepProfile  StepID = "profile"
	StepUsers    StepID = "users"
	StepBuilding StepID = "building"
	StepUnit     StepID = "unit"
	StepTenant   StepID = "tenant"
	StepContract StepID = "contract"
)

// Minimum related-record counts for a step to count as done.
const (
	MinUsers     = 2
	MinBuildings = 1
	MinUnits     = 1
	MinTenants   = 1
	MinContracts = 1
)

// StalledAfter is how long a partially onboarded company may stay idle before it is stalled.
const StalledAfter = 7 * 24 * time.Hour

// Status is the onboarding classification of a company.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusStalled    Status = "stalled"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusStalled, StatusCompleted}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Profile carries the company fields that make up the profile step.
type Profile struct {
	CIF       string
	Direccion string
	Telefono  string
}

// Counts are the related-record counts loaded by the persistence layer.
type Counts struct {
	Users          int
	Buildings      int
	Units          int
	Tenants        int
	Contracts      int
	LastActivityAt time.Time
}

// Facts is the flat input of the step evaluator.
type Facts struct {
	HasProfile     bool      `json:"hasProfile"`
	UserCount      int       `json:"userCount"`
	BuildingCount  int       `json:"buildingCount"`
	UnitCount      int       `json:"unitCount"`
	TenantCount    int       `json:"tenantCount"`
	ContractCount  int       `json:"contractCount"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}

// StepState is one catalog entry with its completion flag.
type StepState struct {
	ID        StepID `json:"id"`
	Completed bool   `json:"completed"`
}

// Result is the outcome of evaluating one company.
type Result struct {
	StepsCompleted  []StepID
	ProgressPercent int
	Status          Status
}

type step struct {
	id   StepID
	done func(Facts) bool
}

// catalog is the fixed, ordered step list. Steps are independent checks.
var catalog = []step{
	{StepProfile, func(f Facts) bool { return f.HasProfile }},
	{StepUsers, func(f Facts) bool { return f.UserCount >= MinUsers }},
	{StepBuilding, func(f Facts) bool { return f.BuildingCount >= MinBuildings }},
	{StepUnit, func(f Facts) bool { return f.UnitCount >= MinUnits }},
	{StepTenant, func(f Facts) bool { return f.TenantCount >= MinTenants }},
	{StepContract, func(f Facts) bool { return f.ContractCount >= MinContracts }},
}

// Catalog returns the step ids in display order.
func Catalog() []StepID {
	ids := make([]StepID, len(catalog))
	for i, s := range catalog {
		ids[i] = s.id
	}
	return ids
}

// TotalSteps is the size of the step catalog.
func TotalSteps() int {
	return len(catalog)
}

// BlankRunes are trimmed before a profile field counts as filled in. The SQL
// status filter trims the same set.
const BlankRunes = " \t\n\v\f\r\u0085\u00a0"

// IsBlank reports whether value holds nothing but BlankRunes.
func IsBlank(value string) bool {
	return strings.Trim(value, BlankRunes) == ""
}

// HasProfile is true when CIF, address and phone are all filled in.
func HasProfile(p Profile) bool {
	return !IsBlank(p.CIF) && !IsBlank(p.Direccion) && !IsBlank(p.Telefono)
}

// CollectFacts flattens a company profile and its counts.
func CollectFacts(p Profile, c Counts) Facts {
	return Facts{
		HasProfile:     HasProfile(p),
		UserCount:      c.Users,
		BuildingCount:  c.Buildings,
		UnitCount:      c.Units,
		TenantCount:    c.Tenants,
		ContractCount:  c.Contracts,
		LastActivityAt: c.LastActivityAt,
	}
}

// EvaluateSteps returns the completed steps in catalog order.
func EvaluateSteps(f Facts) []StepID {
	done := make([]StepID, 0, len(catalog))
	for _, s := range catalog {
		if s.done(f) {
			done = append(done, s.id)
		}
	}
	return done
}

// Checklist returns every catalog step with its completion flag.
func Checklist(f Facts) []StepState {
	states := make([]StepState, len(catalog))
	for i, s := range catalog {
		states[i] = StepState{ID: s.id, Completed: s.done(f)}
	}
	return states
}

// ProgressPercent rounds completed/total to a whole percentage. An empty catalog yields 0.
func ProgressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(completed) / float64(total) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// ClassifyStatus maps progress and last activity to a status.
// A company with partial progress and no recorded activity is stalled.
func ClassifyStatus(progressPercent int, lastActivityAt, now time.Time) Status {
	switch {
	case progressPercent >= 100:
		return StatusCompleted
	case progressPercent <= 0:
		return StatusPending
	case lastActivityAt.IsZero() || now.Sub(lastActivityAt) > StalledAfter:
		return StatusStalled
	default:
		return StatusInProgress
	}
}

// Evaluate runs the step evaluator and the classifier.
func Evaluate(f Facts, now time.Time) Result {
	steps := EvaluateSteps(f)
	pct := ProgressPercent(len(steps), len(catalog))
	return Result{
		StepsCompleted:  steps,
		ProgressPercent: pct,
		Status:          ClassifyStatus(pct, f.LastActivityAt, now),
	}
}
