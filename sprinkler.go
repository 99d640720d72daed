// Package main - sprinkler.go contains real-time PR event monitoring via WebSocket.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/codeGROOVE-dev/sprinkler/pkg/client"
)

const (
	eventChannelSize    = 100              // Buffer size for event channel
	eventDedupWindow    = 5 * time.Second  // Time window for deduplicating events
	eventMapMaxSize     = 1000             // Maximum entries in event dedup map
	eventMapCleanupAge  = 1 * time.Hour    // Age threshold for cleaning up old entries
	sprinklerMaxRetries = 3                // Max retries for PR processing
	sprinklerMaxDelay   = 10 * time.Second // Max delay between retries
)

// sprinklerMonitor subscribes to the real-time PR event stream as an
// alternative delivery path to webhook posts, feeding events into the same
// analysis pipeline.
type sprinklerMonitor struct {
	bot          *ReviewBot
	client       *client.Client
	cancel       context.CancelFunc
	eventChan    chan string          // Channel for PR URLs that need processing
	lastEventMap map[string]time.Time // Track last event per URL to dedupe
	token        string
	mu           sync.Mutex
	isRunning    bool
}

// newSprinklerMonitor creates a monitor authenticated with the given token.
func newSprinklerMonitor(bot *ReviewBot, token string) *sprinklerMonitor {
	_, cancel := context.WithCancel(context.Background())
	return &sprinklerMonitor{
		bot:          bot,
		token:        token,
		cancel:       cancel,
		eventChan:    make(chan string, eventChannelSize),
		lastEventMap: make(map[string]time.Time),
	}
}

// start begins monitoring for PR events.
func (sm *sprinklerMonitor) start(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.isRunning {
		log.Print("[SPRINKLER] Monitor already running")
		return nil
	}

	config := client.Config{
		ServerURL:      "wss://" + client.DefaultServerAddress + "/ws",
		Token:          sm.token,
		Organization:   "*",
		EventTypes:     []string{"pull_request"},
		UserEventsOnly: false,
		Verbose:        false,
		NoReconnect:    false,
		OnConnect: func() {
			log.Print("[SPRINKLER] WebSocket connected")
		},
		OnDisconnect: func(err error) {
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[SPRINKLER] WebSocket disconnected: %v", err)
			}
		},
		OnEvent: func(event client.Event) {
			sm.handleEvent(event)
		},
	}

	wsClient, err := client.New(config)
	if err != nil {
		return fmt.Errorf("create sprinkler client: %w", err)
	}

	sm.client = wsClient
	sm.isRunning = true

	go sm.processEvents(ctx)

	go func() {
		if err := wsClient.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[ERROR] WebSocket client error: %v", err)
			sm.mu.Lock()
			sm.isRunning = false
			sm.mu.Unlock()
		}
	}()

	log.Print("[SPRINKLER] Event monitor started")
	return nil
}

// handleEvent dedupes and queues incoming PR events.
func (sm *sprinklerMonitor) handleEvent(event client.Event) {
	if event.Type != "pull_request" || event.URL == "" {
		return
	}

	sm.mu.Lock()
	now := time.Now()
	if lastSeen, exists := sm.lastEventMap[event.URL]; exists && now.Sub(lastSeen) < eventDedupWindow {
		sm.mu.Unlock()
		return
	}
	sm.lastEventMap[event.URL] = now

	// Clean up old entries to prevent memory leak
	if len(sm.lastEventMap) > eventMapMaxSize {
		cutoff := now.Add(-eventMapCleanupAge)
		for url, timestamp := range sm.lastEventMap {
			if timestamp.Before(cutoff) {
				delete(sm.lastEventMap, url)
			}
		}
	}
	sm.mu.Unlock()

	select {
	case sm.eventChan <- event.URL:
	default:
		log.Printf("[SPRINKLER] Event channel full, dropping event: %s", event.URL)
	}
}

// processEvents drains the event channel, analyzing each PR.
func (sm *sprinklerMonitor) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case prURL := <-sm.eventChan:
			sm.processEvent(ctx, prURL)
		}
	}
}

// processEvent analyzes a single PR with retry.
func (sm *sprinklerMonitor) processEvent(ctx context.Context, prURL string) {
	repo, number := parseRepoAndNumberFromURL(prURL)
	if repo == "" || number == 0 {
		log.Printf("[SPRINKLER] Failed to parse PR URL: %s", prURL)
		return
	}

	startTime := time.Now()
	err := retry.Do(func() error {
		return sm.bot.AnalyzePR(ctx, 0, repo, number)
	},
		retry.Attempts(sprinklerMaxRetries),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxDelay(sprinklerMaxDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[SPRINKLER] Retrying analysis (attempt %d): %s #%d - %v", n+1, repo, number, err)
		}),
		retry.Context(ctx),
	)
	if err != nil {
		log.Printf("[SPRINKLER] Failed to analyze PR after retries: %s #%d (elapsed: %v) - %v",
			repo, number, time.Since(startTime).Round(time.Millisecond), err)
		return
	}

	log.Printf("[SPRINKLER] Analyzed PR: %s #%d (elapsed: %v)",
		repo, number, time.Since(startTime).Round(time.Millisecond))
}

// stop stops the sprinkler monitor.
func (sm *sprinklerMonitor) stop() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.isRunning {
		return
	}
	log.Print("[SPRINKLER] Stopping event monitor")
	sm.cancel()
	sm.isRunning = false
}

// parseRepoAndNumberFromURL extracts repo and PR number from URL.
func parseRepoAndNumberFromURL(url string) (repo string, number int) {
	// URL format: https://github.com/org/repo/pull/123
	const minParts = 7
	parts := strings.Split(url, "/")
	if len(parts) < minParts || parts[2] != "github.com" {
		return "", 0
	}

	repo = fmt.Sprintf("%s/%s", parts[3], parts[4])

	var n int
	if _, err := fmt.Sscanf(parts[6], "%d", &n); err != nil {
		return "", 0
	}

	return repo, n
}
