package mentionwatch

import (
	"github.com/hazyhaar/mentionwatch/internal/config"
)

// Config is the top-level session configuration. Re-exported from internal.
type Config = config.Config

// ChannelConfig names the channel page and extra tracked names.
type ChannelConfig = config.ChannelConfig

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// ObserverConfig holds readiness, selector, and reattachment settings.
type ObserverConfig = config.ObserverConfig

// HistoryConfig controls the mention history store.
type HistoryConfig = config.HistoryConfig

// NotifyConfig selects notification outputs.
type NotifyConfig = config.NotifyConfig

// PanelConfig controls the local history panel.
type PanelConfig = config.PanelConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}
