package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Coordinate display modes
const (
	CoordinateModeCartesian = "cartesian"
	CoordinateModePolar     = "polar"
)

// DefaultZoomLevels are the discrete image scales (arcsec/px) offered by the
// tile API, each level twice as coarse as the previous one.
var DefaultZoomLevels = []float64{
	0.15127755, 0.3025551, 0.6051102, 1.2102204, 2.4204408,
	4.8408816, 9.6817632, 19.3635264, 38.7270528, 77.4541056,
}

// UserSettings represents persistent viewer preferences
type UserSettings struct {
	// Discrete zoom level table (arcsec/px), any order
	ZoomLevels        []float64 `json:"zoomLevels"`
	DefaultImageScale float64   `json:"defaultImageScale"`
	LastImageScale    float64   `json:"lastImageScale"`

	// Tiling
	TileSize         int    `json:"tileSize"`
	TileAPIURL       string `json:"tileAPIURL"`
	TileCacheEntries int    `json:"tileCacheEntries"`

	// Gestures
	PinchSensitivity  float64 `json:"pinchSensitivity"`  // pixels of pinch distance per 1.0 of scale
	WheelIdleWindowMs int     `json:"wheelIdleWindowMs"` // wheel events closer than this form one gesture
	MouseMoveThrottle int     `json:"mouseMoveThrottle"` // refresh tile visibility every N mouse moves

	// Animated zoom (zoom buttons)
	ZoomAnimationMs       int `json:"zoomAnimationMs"`
	ZoomAnimationTickRate int `json:"zoomAnimationTickRate"` // ticks per second

	// Keyboard nudges
	KeyboardStep      int `json:"keyboardStep"`
	KeyboardShiftStep int `json:"keyboardShiftStep"`

	// UI preferences
	CoordinateMode string `json:"coordinateMode"` // "cartesian" or "polar"

	// Analytics distinct id, generated on first run
	InstallID string `json:"installId"`
}

// DefaultSettings returns default viewer settings
func DefaultSettings() *UserSettings {
	levels := make([]float64, len(DefaultZoomLevels))
	copy(levels, DefaultZoomLevels)

	return &UserSettings{
		ZoomLevels:            levels,
		DefaultImageScale:     4.8408816,
		TileSize:              512,
		TileAPIURL:            "https://api.helioviewer.org/v2/getTile/",
		TileCacheEntries:      1024,
		PinchSensitivity:      200,
		WheelIdleWindowMs:     250,
		MouseMoveThrottle:     2,
		ZoomAnimationMs:       250,
		ZoomAnimationTickRate: 120,
		KeyboardStep:          8,
		KeyboardShiftStep:     32,
		CoordinateMode:        CoordinateModeCartesian,
	}
}

// GetSettingsPath returns the settings file path
func GetSettingsPath() string {
	homeDir, _ := os.UserHomeDir()
	baseDir := filepath.Join(homeDir, ".helioviewer-desktop", "settings")
	return filepath.Join(baseDir, "settings.json")
}

// LoadSettings loads user settings from the default location
func LoadSettings() (*UserSettings, error) {
	return LoadSettingsFrom(GetSettingsPath())
}

// LoadSettingsFrom loads user settings from path, filling missing fields
// with defaults. A missing file yields defaults.
func LoadSettingsFrom(path string) (*UserSettings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		settings := DefaultSettings()
		settings.InstallID = uuid.NewString()
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings UserSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	mergeDefaults(&settings)
	return &settings, nil
}

func mergeDefaults(settings *UserSettings) {
	defaults := DefaultSettings()
	if len(settings.ZoomLevels) == 0 {
		settings.ZoomLevels = defaults.ZoomLevels
	}
	if settings.DefaultImageScale <= 0 {
		settings.DefaultImageScale = defaults.DefaultImageScale
	}
	if settings.TileSize <= 0 {
		settings.TileSize = defaults.TileSize
	}
	if settings.TileAPIURL == "" {
		settings.TileAPIURL = defaults.TileAPIURL
	}
	if settings.TileCacheEntries <= 0 {
		settings.TileCacheEntries = defaults.TileCacheEntries
	}
	if settings.PinchSensitivity <= 0 {
		settings.PinchSensitivity = defaults.PinchSensitivity
	}
	if settings.WheelIdleWindowMs <= 0 {
		settings.WheelIdleWindowMs = defaults.WheelIdleWindowMs
	}
	if settings.MouseMoveThrottle <= 0 {
		settings.MouseMoveThrottle = defaults.MouseMoveThrottle
	}
	if settings.ZoomAnimationMs <= 0 {
		settings.ZoomAnimationMs = defaults.ZoomAnimationMs
	}
	if settings.ZoomAnimationTickRate <= 0 {
		settings.ZoomAnimationTickRate = defaults.ZoomAnimationTickRate
	}
	if settings.KeyboardStep <= 0 {
		settings.KeyboardStep = defaults.KeyboardStep
	}
	if settings.KeyboardShiftStep <= 0 {
		settings.KeyboardShiftStep = defaults.KeyboardShiftStep
	}
	if settings.CoordinateMode == "" {
		settings.CoordinateMode = defaults.CoordinateMode
	}
	if settings.InstallID == "" {
		settings.InstallID = uuid.NewString()
	}
}

// SaveSettings saves user settings to the default location
func SaveSettings(settings *UserSettings) error {
	return SaveSettingsTo(GetSettingsPath(), settings)
}

// SaveSettingsTo saves user settings to path
func SaveSettingsTo(path string, settings *UserSettings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// ValidateSettings checks settings that the viewport cannot recover from
func ValidateSettings(settings *UserSettings) error {
	if len(settings.ZoomLevels) == 0 {
		return fmt.Errorf("zoom level table is empty")
	}
	for _, s := range settings.ZoomLevels {
		if s <= 0 {
			return fmt.Errorf("invalid zoom level %f (must be positive)", s)
		}
	}
	if settings.DefaultImageScale <= 0 {
		return fmt.Errorf("default image scale must be positive")
	}
	if settings.TileSize <= 0 {
		return fmt.Errorf("tile size must be positive")
	}
	if settings.PinchSensitivity <= 0 {
		return fmt.Errorf("pinch sensitivity must be positive")
	}

	switch settings.CoordinateMode {
	case CoordinateModeCartesian, CoordinateModePolar:
	default:
		return fmt.Errorf("invalid coordinate mode: %s (must be cartesian or polar)", settings.CoordinateMode)
	}

	return nil
}
