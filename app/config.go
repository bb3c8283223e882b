package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/docbot/core/config"
	"github.com/m3rciful/docbot/core/conversation/menu"
	coredatabase "github.com/m3rciful/docbot/core/database"
)

// AssistantConfig tunes the menu assistant.
type AssistantConfig struct {
	// DefaultRole applies to users with no explicit role.
	DefaultRole string `yaml:"default_role" envconfig:"ASSISTANT_DEFAULT_ROLE"`
	// Roles maps Telegram user ids to roles, e.g. ASSISTANT_ROLES="42:owner,77:clerk".
	Roles map[string]string `yaml:"roles" envconfig:"ASSISTANT_ROLES"`
	// CatalogFile replaces the built-in menu catalog when set.
	CatalogFile string `yaml:"catalog_file" envconfig:"ASSISTANT_CATALOG_FILE"`

	MenuButtonLabel string `yaml:"menu_button_label"`
	BackButtonTitle string `yaml:"back_button_title"`
	EmptyMenuText   string `yaml:"empty_menu_text"`
}

// Config is the docbot configuration: the shared core plus assistant and
// member store sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Assistant AssistantConfig     `yaml:"assistant"`
	Database  coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads the YAML file at path and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the core sections and fills assistant defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", coreconfig.ErrInvalid)
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	a := &cfg.Assistant
	a.DefaultRole = strings.ToLower(strings.TrimSpace(a.DefaultRole))
	if a.DefaultRole == "" {
		a.DefaultRole = string(menu.RoleOwner)
	}
	roles := make(map[string]string, len(a.Roles))
	for user, role := range a.Roles {
		user = strings.TrimSpace(user)
		role = strings.ToLower(strings.TrimSpace(role))
		if user == "" || role == "" {
			return fmt.Errorf("%w: assistant.roles: empty user id or role in %q=%q", coreconfig.ErrInvalid, user, role)
		}
		roles[user] = role
	}
	a.Roles = roles
	a.CatalogFile = strings.TrimSpace(a.CatalogFile)
	return nil
}
