package main

import (
	"context"
	"fmt"
	"log"
	goruntime "runtime"
	"sync"

	"github.com/posthog/posthog-go"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/cache"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/config"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/coords"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/gesture"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/handlers/tileserver"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/ratelimit"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/tiles"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/viewport"
)

// Linker flags
var (
	PostHogKey  string
	PostHogHost string
	AppVersion  string = "0.0.0-dev"
)

// App struct
type App struct {
	ctx              context.Context
	settings         *config.UserSettings
	settingsPath     string
	viewport         *viewport.Viewport
	layers           *tiles.TileLayerManager
	tileCache        *cache.TileCache
	tileServer       *tileserver.Server
	rateLimitHandler *ratelimit.Handler
	mouse            *coords.MouseCoordinates
	mu               sync.Mutex
	devMode          bool // Enable verbose logging in dev mode only
	phClient         posthog.Client
}

// NewApp creates a new App application struct
func NewApp(devMode bool) *App {
	settingsPath := config.GetSettingsPath()
	settings, err := config.LoadSettingsFrom(settingsPath)
	if err == nil {
		err = config.ValidateSettings(settings)
	}
	if err != nil {
		log.Printf("Failed to load settings, using defaults: %v", err)
		settings = config.DefaultSettings()
	}
	log.Printf("Settings loaded from: %s", settingsPath)

	a := &App{
		settings:     settings,
		settingsPath: settingsPath,
		devMode:      devMode,
		ctx:          context.Background(),
	}

	tileCache, err := cache.NewTileCache(settings.TileCacheEntries)
	if err != nil {
		log.Printf("Failed to initialize tile cache: %v", err)
		tileCache = nil // Continue without cache
	}
	a.tileCache = tileCache

	a.rateLimitHandler = ratelimit.NewHandler(0)
	source := tiles.NewHTTPTileSource(settings.TileAPIURL, tileCache, a.rateLimitHandler, devMode)
	a.tileServer = tileserver.NewServer(context.Background(), source, tileCache, devMode)
	a.layers = tiles.NewTileLayerManager(context.Background(), source, a, settings.TileSize, devMode)

	opts, err := viewport.OptionsFromSettings(settings)
	if err != nil {
		log.Printf("Invalid zoom levels, using defaults: %v", err)
		opts, _ = viewport.OptionsFromSettings(config.DefaultSettings())
	}
	opts.DevMode = devMode
	a.viewport = viewport.New(opts, a.layers)
	a.mouse = coords.NewMouseCoordinates(a.viewport, a.layers, settings.CoordinateMode)

	if PostHogKey != "" {
		client, err := posthog.NewWithConfig(PostHogKey, posthog.Config{Endpoint: PostHogHost})
		if err != nil {
			log.Printf("Failed to initialize PostHog: %v", err)
		} else {
			a.phClient = client
		}
	}

	return a
}

// startup is called when the app starts
func (a *App) startup(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	a.viewport.SetCallbacks(a.onViewportChanged, a.onImageScaleChanged)
	a.rateLimitHandler.SetCallbacks(
		func(event ratelimit.RateLimitEvent) {
			a.emit("rate-limit", event)
		},
		func(provider string) {
			a.emit("rate-limit-cleared", provider)
		},
	)

	if err := a.tileServer.Start(); err != nil {
		wailsRuntime.LogError(ctx, fmt.Sprintf("Tile server unavailable: %v", err))
	}

	wailsRuntime.LogInfo(ctx, fmt.Sprintf("Viewer started at image scale %.4f arcsec/px", a.viewport.ImageScale()))

	a.TrackEvent("app_started", map[string]interface{}{
		"version": AppVersion,
		"os":      goruntime.GOOS,
		"arch":    goruntime.GOARCH,
	})
}

// shutdown persists the session and flushes analytics
func (a *App) shutdown(ctx context.Context) {
	a.stopTileServer()
	if err := a.persistImageScale(a.viewport.ImageScale()); err != nil {
		log.Printf("Failed to save settings on shutdown: %v", err)
	}
	if a.phClient != nil {
		a.phClient.Close()
	}
}

// emit sends an event to the frontend once the runtime is up
func (a *App) emit(event string, data ...interface{}) {
	a.mu.Lock()
	ctx := a.ctx
	a.mu.Unlock()

	if ctx == nil || ctx.Value("events") == nil {
		// Not running inside the wails runtime (startup not called yet)
		return
	}
	wailsRuntime.EventsEmit(ctx, event, data...)
}

// TrackEvent sends an event to PostHog
func (a *App) TrackEvent(event string, props map[string]interface{}) {
	if a.phClient != nil {
		a.mu.Lock()
		installID := a.settings.InstallID
		a.mu.Unlock()

		a.phClient.Enqueue(posthog.Capture{
			DistinctId: installID,
			Event:      event,
			Properties: props,
		})
	}
}

func (a *App) onViewportChanged(c common.ViewportCoords) {
	a.emit("viewport-changed", c)
}

func (a *App) onImageScaleChanged(imageScale float64) {
	a.emit("image-scale-changed", imageScale)
	a.TrackEvent("zoom_level_changed", map[string]interface{}{
		"imageScale": imageScale,
	})

	// Persist asynchronously; the viewport lock is held here
	go func() {
		if err := a.persistImageScale(imageScale); err != nil {
			log.Printf("Failed to persist image scale: %v", err)
		}
	}()
}

// GetAppVersion returns the current application version
func (a *App) GetAppVersion() string {
	return AppVersion
}

// ===================
// Viewport input
// ===================

// Resize is called by the frontend when the viewer element changes size
func (a *App) Resize(width, height float64) {
	a.viewport.Resize(width, height)
}

func (a *App) MouseDown(x, y float64) { a.viewport.MouseDown(x, y) }
func (a *App) MouseMove(x, y float64) { a.viewport.MouseMove(x, y) }
func (a *App) MouseUp()               { a.viewport.MouseUp() }

func (a *App) TouchStart(touches []gesture.Touch) { a.viewport.TouchStart(touches) }
func (a *App) TouchMove(touches []gesture.Touch)  { a.viewport.TouchMove(touches) }
func (a *App) TouchEnd(remaining []gesture.Touch) { a.viewport.TouchEnd(remaining) }

// Wheel forwards a wheel event at the cursor position
func (a *App) Wheel(x, y, deltaY float64) {
	a.viewport.Wheel(x, y, deltaY)
}

// ZoomIn starts an animated zoom one level in
func (a *App) ZoomIn() {
	a.viewport.ZoomIn()
}

// ZoomOut starts an animated zoom one level out
func (a *App) ZoomOut() {
	a.viewport.ZoomOut()
}

// SetImageScale jumps to the zoom level nearest imageScale
func (a *App) SetImageScale(imageScale float64) {
	a.viewport.SetImageScale(imageScale)
}

// KeyPress nudges the viewport for arrow keys; shift moves further.
// It returns false for keys it does not handle.
func (a *App) KeyPress(key string, shift bool) bool {
	a.mu.Lock()
	step := float64(a.settings.KeyboardStep)
	if shift {
		step = float64(a.settings.KeyboardShiftStep)
	}
	a.mu.Unlock()

	switch key {
	case "ArrowLeft":
		a.viewport.MoveViewport(-step, 0)
	case "ArrowRight":
		a.viewport.MoveViewport(step, 0)
	case "ArrowUp":
		a.viewport.MoveViewport(0, -step)
	case "ArrowDown":
		a.viewport.MoveViewport(0, step)
	case "c":
		a.viewport.Center()
	case "+", "=":
		a.viewport.ZoomIn()
	case "-", "_":
		a.viewport.ZoomOut()
	default:
		return false
	}
	return true
}

// Center recenters the viewport on the solar disk
func (a *App) Center() {
	a.viewport.Center()
}

// GetViewportCoords returns the visible pixel region relative to the solar center
func (a *App) GetViewportCoords() common.ViewportCoords {
	return a.viewport.GetViewportCoords()
}

// GetRegionOfInterest returns the visible region in arcseconds, for
// screenshot and movie requests
func (a *App) GetRegionOfInterest() common.RegionOfInterest {
	return a.viewport.GetRegionOfInterest()
}

// GetViewportState returns the full geometry model for rendering
func (a *App) GetViewportState() viewport.ViewportState {
	return a.viewport.Snapshot()
}

// GetMouseCoords returns the formatted physical coordinates of a screen point
func (a *App) GetMouseCoords(clientX, clientY float64) string {
	return a.mouse.Readout(clientX, clientY)
}

// GetMouseCartesian returns the arcsecond coordinates of a screen point
func (a *App) GetMouseCartesian(clientX, clientY float64) coords.Cartesian {
	return a.mouse.ComputeMouseCoords(clientX, clientY)
}
