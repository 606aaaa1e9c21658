// Package navigation serves the role-based sidebar and quick actions of the web client.
// The tables are read once from an embedded YAML document and never change afterwards.
package navigation

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed navigation.yaml
var defaultDocument []byte

// Roles known to the platform.
const (
	RoleSuperAdmin       = "super_admin"
	RoleAdministrador    = "administrador"
	RoleGestor           = "gestor"
	RoleOperador         = "operador"
	RoleSoporte          = "soporte"
	RoleCommunityManager = "community_manager"
)

type Item struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Path  string `yaml:"path" json:"path"`
	Icon  string `yaml:"icon" json:"icon,omitempty"`
}

type Section struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Items []Item `yaml:"items" json:"items"`
}

type QuickAction struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Path  string `yaml:"path" json:"path"`
}

type roleEntry struct {
	Sidebar      []Section     `yaml:"sidebar"`
	QuickActions []QuickAction `yaml:"quick_actions"`
}

type document struct {
	DefaultRole string               `yaml:"default_role"`
	Hierarchy   []string             `yaml:"hierarchy"`
	Roles       map[string]roleEntry `yaml:"roles"`
}

// Table holds the parsed navigation. Lookups return copies, so callers cannot
// mutate the shared data.
type Table struct {
	defaultRole string
	hierarchy   []string
	roles       map[string]roleEntry
}

// Load parses the embedded navigation document.
func Load() (*Table, error) {
	return Parse(defaultDocument)
}

// Parse builds a Table from a YAML document.
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse navigation: %w", err)
	}
	if _, ok := doc.Roles[doc.DefaultRole]; !ok {
		return nil, fmt.Errorf("navigation: default role %q has no entry", doc.DefaultRole)
	}
	for _, role := range doc.Hierarchy {
		if _, ok := doc.Roles[role]; !ok {
			return nil, fmt.Errorf("navigation: role %q has no entry", role)
		}
	}
	for role := range doc.Roles {
		if !slices.Contains(doc.Hierarchy, role) {
			return nil, fmt.Errorf("navigation: role %q missing from hierarchy", role)
		}
	}
	return &Table{defaultRole: doc.DefaultRole, hierarchy: doc.Hierarchy, roles: doc.Roles}, nil
}

// Resolve maps a role to the one whose entry applies; unknown roles fall back to the default.
func (t *Table) Resolve(role string) string {
	if _, ok := t.roles[role]; ok {
		return role
	}
	return t.defaultRole
}

// HighestRole picks the most privileged known role, or the default when none is known.
func (t *Table) HighestRole(roles []string) string {
	for _, role := range t.hierarchy {
		if slices.Contains(roles, role) {
			return role
		}
	}
	return t.defaultRole
}

// Sidebar returns the sidebar sections of role.
func (t *Table) Sidebar(role string) []Section {
	sections := t.roles[t.Resolve(role)].Sidebar
	out := make([]Section, len(sections))
	for i, section := range sections {
		out[i] = Section{ID: section.ID, Label: section.Label, Items: slices.Clone(section.Items)}
		if out[i].Items == nil {
			out[i].Items = []Item{}
		}
	}
	return out
}

// QuickActions returns the quick actions of role.
func (t *Table) QuickActions(role string) []QuickAction {
	actions := slices.Clone(t.roles[t.Resolve(role)].QuickActions)
	if actions == nil {
		return []QuickAction{}
	}
	return actions
}
