package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsFrom_MissingFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	settings, err := LoadSettingsFrom(path)
	require.NoError(t, err)

	defaults := DefaultSettings()
	assert.Equal(t, defaults.ZoomLevels, settings.ZoomLevels)
	assert.Equal(t, defaults.TileSize, settings.TileSize)
	assert.Equal(t, CoordinateModeCartesian, settings.CoordinateMode)
	assert.NotEmpty(t, settings.InstallID)
	assert.NoError(t, ValidateSettings(settings))
}

func TestLoadSettingsFrom_MergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tileSize": 256, "coordinateMode": "polar", "lastImageScale": 0.6051102}`), 0644))

	settings, err := LoadSettingsFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 256, settings.TileSize)
	assert.Equal(t, CoordinateModePolar, settings.CoordinateMode)
	assert.Equal(t, 0.6051102, settings.LastImageScale)
	assert.Equal(t, DefaultZoomLevels, settings.ZoomLevels)
	assert.Equal(t, 200.0, settings.PinchSensitivity)
	assert.Equal(t, 250, settings.WheelIdleWindowMs)
	assert.NotEmpty(t, settings.InstallID)
}

func TestLoadSettingsFrom_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tileSize": `), 0644))

	_, err := LoadSettingsFrom(path)
	assert.Error(t, err)
}

func TestSaveSettingsTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	settings := DefaultSettings()
	settings.InstallID = "install-1"
	settings.LastImageScale = 1.2102204
	settings.KeyboardStep = 16
	require.NoError(t, SaveSettingsTo(path, settings))

	loaded, err := LoadSettingsFrom(path)
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)
}

func TestDefaultSettings_ZoomLevelsAreCopied(t *testing.T) {
	settings := DefaultSettings()
	settings.ZoomLevels[0] = 42

	assert.NotEqual(t, 42.0, DefaultZoomLevels[0])
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *UserSettings)
	}{
		{"empty zoom levels", func(s *UserSettings) { s.ZoomLevels = nil }},
		{"non-positive zoom level", func(s *UserSettings) { s.ZoomLevels = []float64{1, 0} }},
		{"default image scale", func(s *UserSettings) { s.DefaultImageScale = 0 }},
		{"tile size", func(s *UserSettings) { s.TileSize = -1 }},
		{"pinch sensitivity", func(s *UserSettings) { s.PinchSensitivity = 0 }},
		{"coordinate mode", func(s *UserSettings) { s.CoordinateMode = "spherical" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			assert.Error(t, ValidateSettings(s))
		})
	}
}

func TestGetSettingsPath(t *testing.T) {
	path := GetSettingsPath()
	assert.Equal(t, "settings.json", filepath.Base(path))
	assert.Contains(t, path, ".helioviewer-desktop")
}
