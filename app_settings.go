package main

import (
	"fmt"
	"log"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/config"
)

// ===================
// Settings Management
// ===================

// GetSettings returns current user settings
func (a *App) GetSettings() (*config.UserSettings, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Return a copy to prevent external modifications
	settingsCopy := *a.settings
	settingsCopy.ZoomLevels = append([]float64(nil), a.settings.ZoomLevels...)
	return &settingsCopy, nil
}

// SaveSettings saves user settings to disk and updates app state
func (a *App) SaveSettings(settings *config.UserSettings) error {
	if err := config.ValidateSettings(settings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// The install id is never changed by the frontend
	settings.InstallID = a.settings.InstallID

	if err := config.SaveSettingsTo(a.settingsPath, settings); err != nil {
		return err
	}

	// Coordinate mode applies immediately
	if err := a.mouse.SetMode(settings.CoordinateMode); err != nil {
		return err
	}
	a.settings = settings

	// Zoom table, tile and gesture settings are read at startup
	log.Printf("Settings saved. Zoom and tile settings will apply on next restart.")

	return nil
}

// SetCoordinateMode switches the mouse readout between cartesian and polar
func (a *App) SetCoordinateMode(mode string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.mouse.SetMode(mode); err != nil {
		return err
	}
	a.settings.CoordinateMode = mode
	return config.SaveSettingsTo(a.settingsPath, a.settings)
}

// GetCoordinateMode returns the current readout mode
func (a *App) GetCoordinateMode() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mouse.Mode()
}

// GetSettingsPath returns the OS-specific settings file path
func (a *App) GetSettingsPath() string {
	return a.settingsPath
}

// persistImageScale remembers the zoom level for the next session
func (a *App) persistImageScale(imageScale float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.settings.LastImageScale == imageScale {
		return nil
	}
	a.settings.LastImageScale = imageScale
	return config.SaveSettingsTo(a.settingsPath, a.settings)
}
