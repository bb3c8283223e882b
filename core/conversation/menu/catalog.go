// Package menu holds the role-keyed menu catalog and renders it into
// numbered chat text.
package menu

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Role selects which catalog a user sees.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleClerk   Role = "clerk"
)

// ParseRole normalises free-form role input; ok is false for unknown roles.
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RoleOwner, RoleManager, RoleClerk:
		return r, true
	}
	return r, false
}

// Item is a selectable menu entry. ID is the action token the router dispatches on.
// Locked and Feature only change how the item is drawn.
type Item struct {
	ID      string `yaml:"id"`
	Label   string `yaml:"label"`
	Locked  bool   `yaml:"locked,omitempty"`
	Feature string `yaml:"feature,omitempty"`
}

// Section is a display heading followed by its items.
type Section struct {
	Section string `yaml:"section"`
	Items   []Item `yaml:"items"`
}

// RoleMenu binds a role to its ordered sections.
type RoleMenu struct {
	Role     Role      `yaml:"role"`
	Sections []Section `yaml:"sections"`
}

// Catalog is the static menu tree for every role.
type Catalog struct {
	Roles []RoleMenu `yaml:"roles"`
}

var (
	ErrEmptyCatalog   = errors.New("menu: catalog has no roles")
	ErrDuplicateRole  = errors.New("menu: duplicate role")
	ErrDuplicateItem  = errors.New("menu: duplicate item id")
	ErrInvalidItem    = errors.New("menu: item needs id and label")
	ErrInvalidSection = errors.New("menu: section needs a heading")
	ErrUnknownAction  = errors.New("menu: item id has no action")
)

//go:embed catalog.yaml
var builtinCatalog []byte

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(builtinCatalog)
	if err != nil {
		panic(fmt.Sprintf("menu: builtin catalog: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the invariants the router and renderer rely on.
func (c *Catalog) Validate() error {
	if c == nil || len(c.Roles) == 0 {
		return ErrEmptyCatalog
	}
	roles := make(map[Role]struct{}, len(c.Roles))
	for _, rm := range c.Roles {
		if _, dup := roles[rm.Role]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateRole, rm.Role)
		}
		roles[rm.Role] = struct{}{}

		ids := make(map[string]struct{})
		for _, sec := range rm.Sections {
			if strings.TrimSpace(sec.Section) == "" {
				return fmt.Errorf("%w (role %q)", ErrInvalidSection, rm.Role)
			}
			for _, it := range sec.Items {
				if strings.TrimSpace(it.ID) == "" || strings.TrimSpace(it.Label) == "" {
					return fmt.Errorf("%w (role %q, section %q)", ErrInvalidItem, rm.Role, sec.Section)
				}
				if _, dup := ids[it.ID]; dup {
					return fmt.Errorf("%w: %q in role %q", ErrDuplicateItem, it.ID, rm.Role)
				}
				ids[it.ID] = struct{}{}
			}
		}
	}
	return nil
}

// SectionsFor returns the role's ordered sections, or an empty slice for an unknown role.
func (c *Catalog) SectionsFor(role Role) []Section {
	if c == nil {
		return []Section{}
	}
	for _, rm := range c.Roles {
		if rm.Role == role {
			return rm.Sections
		}
	}
	return []Section{}
}

// ItemIDs lists every distinct action id in catalog order.
func (c *Catalog) ItemIDs() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var ids []string
	for _, rm := range c.Roles {
		for _, sec := range rm.Sections {
			for _, it := range sec.Items {
				if _, ok := seen[it.ID]; ok {
					continue
				}
				seen[it.ID] = struct{}{}
				ids = append(ids, it.ID)
			}
		}
	}
	return ids
}

// CheckActions fails on the first item id that known rejects.
func (c *Catalog) CheckActions(known func(id string) bool) error {
	for _, id := range c.ItemIDs() {
		if !known(id) {
			return fmt.Errorf("%w: %q", ErrUnknownAction, id)
		}
	}
	return nil
}
