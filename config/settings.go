package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Catalog  CatalogSettings  `json:"catalog"`
	Playback PlaybackSettings `json:"playback"`
	Storage  StorageSettings  `json:"storage"`
	Log      LogSettings      `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// CatalogSettings configures the remote catalog API client.
type CatalogSettings struct {
	BaseURL string `json:"baseUrl"`
	// PageSize is the default list page size. The remote API caps at 64;
	// larger values are clamped by the client.
	PageSize int `json:"pageSize"`
	// DebounceMs is the search-as-you-type quiescence window.
	DebounceMs int `json:"debounceMs"`
}

type PlaybackSettings struct {
	// EmbedTimeoutSec bounds how long an embed iframe may take to load
	// before the resolver treats the source as failed.
	EmbedTimeoutSec int `json:"embedTimeoutSec"`
	// NativeHLS marks platforms that play .m3u8 without a manifest loader.
	NativeHLS bool `json:"nativeHls"`
}

type StorageSettings struct {
	Directory string `json:"directory"`
}

type LogSettings struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration used when no settings file exists.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 8485},
		Catalog: CatalogSettings{
			BaseURL:    "https://phimapi.com",
			PageSize:   24,
			DebounceMs: 300,
		},
		Playback: PlaybackSettings{EmbedTimeoutSec: 8},
		Storage:  StorageSettings{Directory: "cache"},
		Log: LogSettings{
			MaxSize:    20,
			MaxAge:     14,
			MaxBackups: 3,
			Compress:   true,
		},
	}
}

// Manager loads and persists the settings file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads the settings file from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	settings := DefaultSettings()
	if err := json.NewDecoder(f).Decode(&settings); err != nil {
		return Settings{}, err
	}
	return applyFallbacks(settings), nil
}

// Save writes the settings file atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}

	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}

func applyFallbacks(s Settings) Settings {
	defaults := DefaultSettings()
	if s.Server.Port == 0 {
		s.Server.Port = defaults.Server.Port
	}
	if s.Catalog.BaseURL == "" {
		s.Catalog.BaseURL = defaults.Catalog.BaseURL
	}
	if s.Catalog.PageSize <= 0 {
		s.Catalog.PageSize = defaults.Catalog.PageSize
	}
	if s.Catalog.DebounceMs <= 0 {
		s.Catalog.DebounceMs = defaults.Catalog.DebounceMs
	}
	if s.Playback.EmbedTimeoutSec <= 0 {
		s.Playback.EmbedTimeoutSec = defaults.Playback.EmbedTimeoutSec
	}
	if s.Storage.Directory == "" {
		s.Storage.Directory = defaults.Storage.Directory
	}
	return s
}
