// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	AppName       = "keysniff"
	ConfigType    = "yaml"
	DefaultConfig = `# keysniff configuration

# Audio settings
sample_rate: 24000        # Samples per second of the recording
device_index: -1          # Capture device index (-1 for default)
buffer_size: 1024         # Capture buffer size in frames

# Peak detection
threshold_background: 10.0  # Peak must exceed the rolling background by this ratio
history_size: 6144          # Sliding maximum window in samples

# Correlation
keypress_width: 256       # Correlation window half-width in samples
offset_from_peak: 128     # Start of correlation window relative to the peak
align_window: 256         # Best-offset search range (+/- samples)

# Clustering
threshold_clustering: 0.5 # Minimum pair correlation considered for a merge

# Pipeline
adjust_passes: 1          # Position refinement iterations between similarity passes
workers: 0                # Similarity worker pool size (0 = all CPUs)

# Storage
db_path: "keysniff.sqlite3" # Session store location

# Output
debug: false              # Enable debug output
`
)

// Settings holds all application configuration
type Settings struct {
	// Audio settings
	SampleRate  int `mapstructure:"sample_rate"`
	DeviceIndex int `mapstructure:"device_index"`
	BufferSize  int `mapstructure:"buffer_size"`

	// Peak detection
	ThresholdBackground float64 `mapstructure:"threshold_background"`
	HistorySize         int     `mapstructure:"history_size"`

	// Correlation
	KeyPressWidth  int `mapstructure:"keypress_width"`
	OffsetFromPeak int `mapstructure:"offset_from_peak"`
	AlignWindow    int `mapstructure:"align_window"`

	// Clustering
	ThresholdClustering float64 `mapstructure:"threshold_clustering"`

	// Pipeline
	AdjustPasses int `mapstructure:"adjust_passes"`
	Workers      int `mapstructure:"workers"`

	// Storage
	DBPath string `mapstructure:"db_path"`

	// Output
	Debug bool `mapstructure:"debug"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/keysniff/
func Init() error {
	// Set defaults
	viper.SetDefault("sample_rate", 24000)
	viper.SetDefault("device_index", -1)
	viper.SetDefault("buffer_size", 1024)
	viper.SetDefault("threshold_background", 10.0)
	viper.SetDefault("history_size", 6144)
	viper.SetDefault("keypress_width", 256)
	viper.SetDefault("offset_from_peak", 128)
	viper.SetDefault("align_window", 256)
	viper.SetDefault("threshold_clustering", 0.5)
	viper.SetDefault("adjust_passes", 1)
	viper.SetDefault("workers", 0)
	viper.SetDefault("db_path", "keysniff.sqlite3")
	viper.SetDefault("debug", false)

	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	// If no config file exists anywhere, create the default in the XDG dir
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			xdgConfigPath := filepath.Join(configDir, AppName)
			if err = ensureConfigExists(xdgConfigPath); err != nil {
				return err
			}
			if err = viper.ReadInConfig(); err != nil {
				return fmt.Errorf("read config: %w", err)
			}
		} else {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Audio settings
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %d", s.SampleRate))
	}
	if s.BufferSize < 64 || s.BufferSize > 8192 {
		errs = append(errs, fmt.Errorf("buffer_size must be between 64 and 8192, got %d", s.BufferSize))
	}

	// Peak detection
	if s.ThresholdBackground <= 0 || s.ThresholdBackground > 100 {
		errs = append(errs, fmt.Errorf("threshold_background must be between 0 and 100, got %v", s.ThresholdBackground))
	}
	if s.HistorySize < 64 || s.HistorySize > 1024*64 {
		errs = append(errs, fmt.Errorf("history_size must be between 64 and 65536, got %d", s.HistorySize))
	}

	// Correlation
	if s.KeyPressWidth < 1 || s.KeyPressWidth > s.SampleRate/10 {
		errs = append(errs, fmt.Errorf("keypress_width must be between 1 and sample_rate/10, got %d", s.KeyPressWidth))
	}
	if s.OffsetFromPeak < -s.SampleRate/10 || s.OffsetFromPeak > s.SampleRate/10 {
		errs = append(errs, fmt.Errorf("offset_from_peak must be within +/- sample_rate/10, got %d", s.OffsetFromPeak))
	}
	if s.AlignWindow < 1 || s.AlignWindow > s.SampleRate/10 {
		errs = append(errs, fmt.Errorf("align_window must be between 1 and sample_rate/10, got %d", s.AlignWindow))
	}

	// Clustering
	if s.ThresholdClustering < 0.0 || s.ThresholdClustering > 1.0 {
		errs = append(errs, fmt.Errorf("threshold_clustering must be between 0.0 and 1.0, got %v", s.ThresholdClustering))
	}

	// Pipeline
	if s.AdjustPasses < 0 || s.AdjustPasses > 16 {
		errs = append(errs, fmt.Errorf("adjust_passes must be between 0 and 16, got %d", s.AdjustPasses))
	}
	if s.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be non-negative, got %d", s.Workers))
	}

	// Storage
	if s.DBPath == "" {
		errs = append(errs, errors.New("db_path must not be empty"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
