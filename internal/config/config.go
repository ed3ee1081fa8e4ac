// Package config handles mentionwatch configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/mentionwatch/chatmsg"
	"github.com/hazyhaar/mentionwatch/internal/browser"
)

// Config is the top-level mentionwatch configuration.
type Config struct {
	Channel  ChannelConfig  `yaml:"channel"`
	Browser  BrowserConfig  `yaml:"browser"`
	Observer ObserverConfig `yaml:"observer"`
	History  HistoryConfig  `yaml:"history"`
	Notify   NotifyConfig   `yaml:"notify"`
	Panel    PanelConfig    `yaml:"panel"`
}

// ChannelConfig identifies the page to watch and who to watch for.
type ChannelConfig struct {
	URL string `yaml:"url"`
	// TrackedNames are watched in addition to the signed-in viewer. The
	// set is built once at session start and never mutated mid-session.
	TrackedNames []string `yaml:"tracked_names"`
}

// BrowserConfig controls the Chrome lifecycle.
type BrowserConfig struct {
	Remote           string   `yaml:"remote"`
	Headful          bool     `yaml:"headful"`
	ResourceBlocking []string `yaml:"resource_blocking"`
}

// ObserverConfig controls readiness polling, chat attachment, and the
// structural selectors of the host page.
type ObserverConfig struct {
	// ReadyQuery/ReadyAttr locate the host app's readiness marker.
	ReadyQuery    string        `yaml:"ready_query"`
	ReadyAttr     string        `yaml:"ready_attr"`
	ReadyInterval time.Duration `yaml:"ready_interval"`
	ReadyTimeout  time.Duration `yaml:"ready_timeout"`

	// LoggedInQuery matches only when a user is signed in.
	LoggedInQuery string `yaml:"logged_in_query"`

	// ContainerClass locates the chat message list.
	ContainerClass string `yaml:"container_class"`

	Line     chatmsg.LineSelectors     `yaml:"line"`
	Identity browser.IdentitySelectors `yaml:"identity"`

	SettleDelay      time.Duration `yaml:"settle_delay"`
	ReattachAttempts int           `yaml:"reattach_attempts"`
	ReattachDelay    time.Duration `yaml:"reattach_delay"`
}

// HistoryConfig controls the mention history store. The default in-memory
// path scopes the history to the session, like a browser tab.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// NotifyConfig selects notification outputs.
type NotifyConfig struct {
	Sound      *bool  `yaml:"sound"` // default true
	WebhookURL string `yaml:"webhook_url"`
}

// PanelConfig controls the local history panel.
type PanelConfig struct {
	// Listen is the panel's bind address. Empty disables the panel.
	Listen string `yaml:"listen"`
}

// Defaults fills unset fields with the Twitch defaults.
func (c *Config) Defaults() {
	o := &c.Observer
	if o.ReadyQuery == "" {
		o.ReadyQuery = "#root"
	}
	if o.ReadyAttr == "" {
		o.ReadyAttr = "data-a-page-loaded"
	}
	if o.ReadyInterval <= 0 {
		o.ReadyInterval = 250 * time.Millisecond
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = 60 * time.Second
	}
	if o.LoggedInQuery == "" {
		o.LoggedInQuery = "body.logged-in"
	}
	if o.ContainerClass == "" {
		o.ContainerClass = "chat-list__list-container"
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = 500 * time.Millisecond
	}
	if o.ReattachAttempts <= 0 {
		o.ReattachAttempts = 5
	}
	if o.ReattachDelay <= 0 {
		o.ReattachDelay = 500 * time.Millisecond
	}

	if c.History.Path == "" {
		c.History.Path = ":memory:"
	}
	if c.Notify.Sound == nil {
		on := true
		c.Notify.Sound = &on
	}
}

// Validate reports configuration errors that Defaults cannot repair.
func (c *Config) Validate() error {
	if c.Channel.URL == "" {
		return fmt.Errorf("config: channel.url is required")
	}
	return nil
}

// SoundEnabled reports whether the sound notifier should be wired.
func (c *Config) SoundEnabled() bool {
	return c.Notify.Sound == nil || *c.Notify.Sound
}

// LoadFile reads a YAML configuration file and applies defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
