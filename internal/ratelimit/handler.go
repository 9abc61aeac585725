package ratelimit

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// DefaultCooldown is how long a provider is considered rate limited after
// a limiting response
const DefaultCooldown = 2 * time.Minute

// RateLimitEvent represents a rate limit occurrence
type RateLimitEvent struct {
	Timestamp  time.Time `json:"timestamp" ts_type:"string"`
	Provider   string    `json:"provider"`
	StatusCode int       `json:"statusCode"` // HTTP status code (403, 429, etc.)
	Count      int       `json:"count"`      // limiting responses seen during this episode
	Until      time.Time `json:"until" ts_type:"string"`
	Message    string    `json:"message"`
}

// Handler tracks rate-limited providers so tile requests can fail fast to
// placeholders instead of hammering the server. It never retries.
type Handler struct {
	mu          sync.RWMutex
	rateLimited map[string]*RateLimitEvent // provider -> current rate limit state
	cooldown    time.Duration
	now         func() time.Time
	onRateLimit func(event RateLimitEvent)
	onRecovered func(provider string)
}

// NewHandler creates a rate limit handler. cooldown <= 0 uses the default.
func NewHandler(cooldown time.Duration) *Handler {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Handler{
		rateLimited: make(map[string]*RateLimitEvent),
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// SetCallbacks sets the rate limit and recovery callbacks
func (h *Handler) SetCallbacks(onRateLimit func(event RateLimitEvent), onRecovered func(provider string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRateLimit = onRateLimit
	h.onRecovered = onRecovered
}

// IsRateLimited checks if a provider is inside its cooldown. An expired
// cooldown counts as recovery.
func (h *Handler) IsRateLimited(provider string) bool {
	h.mu.RLock()
	event, limited := h.rateLimited[provider]
	h.mu.RUnlock()

	if !limited {
		return false
	}
	if h.now().Before(event.Until) {
		return true
	}
	h.checkRecovery(provider)
	return false
}

// CheckResponse analyzes an HTTP response for rate limit indicators
func (h *Handler) CheckResponse(provider string, resp *http.Response) bool {
	isRateLimited := resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode == http.StatusServiceUnavailable ||
		resp.StatusCode == 509 // Bandwidth Limit Exceeded

	if !isRateLimited {
		h.checkRecovery(provider)
		return false
	}

	h.recordRateLimit(provider, resp.StatusCode)
	return true
}

// recordRateLimit starts or extends a provider's cooldown
func (h *Handler) recordRateLimit(provider string, statusCode int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	count := 1
	if existing, exists := h.rateLimited[provider]; exists {
		count = existing.Count + 1
	}

	now := h.now()
	event := RateLimitEvent{
		Timestamp:  now,
		Provider:   provider,
		StatusCode: statusCode,
		Count:      count,
		Until:      now.Add(h.cooldown),
	}
	event.Message = fmt.Sprintf("Tile server rate limit reached (HTTP %d). Missing tiles will be shown as placeholders for %d minutes.",
		statusCode, int(h.cooldown.Minutes()))
	h.rateLimited[provider] = &event

	log.Printf("[RateLimit] %s rate limited (%d). Cooling down until %s",
		provider, count, event.Until.Format(time.RFC3339))

	if h.onRateLimit != nil && count == 1 {
		go h.onRateLimit(event)
	}
}

// checkRecovery clears a provider's rate limit state
func (h *Handler) checkRecovery(provider string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.rateLimited[provider]; exists {
		delete(h.rateLimited, provider)
		log.Printf("[RateLimit] %s rate limit cleared", provider)

		if h.onRecovered != nil {
			go h.onRecovered(provider)
		}
	}
}

// Reset clears a provider's rate limit state on user request
func (h *Handler) Reset(provider string) {
	h.checkRecovery(provider)
}

// GetCurrentState returns the current rate limit state for a provider
func (h *Handler) GetCurrentState(provider string) *RateLimitEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if event, exists := h.rateLimited[provider]; exists {
		eventCopy := *event
		return &eventCopy
	}
	return nil
}
