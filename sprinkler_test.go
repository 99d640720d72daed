package main

import (
	"testing"

	"github.com/codeGROOVE-dev/sprinkler/pkg/client"
)

func eventFor(url string) client.Event {
	return client.Event{Type: "pull_request", URL: url}
}

func TestParseRepoAndNumberFromURL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantRepo   string
		wantNumber int
	}{
		{"valid PR URL", "https://github.com/octo/widgets/pull/123", "octo/widgets", 123},
		{"trailing path", "https://github.com/octo/widgets/pull/42/files", "octo/widgets", 42},
		{"not github", "https://gitlab.com/octo/widgets/pull/123", "", 0},
		{"too short", "https://github.com/octo", "", 0},
		{"non-numeric number", "https://github.com/octo/widgets/pull/abc", "", 0},
		{"empty", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, number := parseRepoAndNumberFromURL(tt.url)
			if repo != tt.wantRepo || number != tt.wantNumber {
				t.Errorf("parseRepoAndNumberFromURL(%q) = %q, %d; want %q, %d",
					tt.url, repo, number, tt.wantRepo, tt.wantNumber)
			}
		})
	}
}

func TestSprinklerEventDedup(t *testing.T) {
	sm := newSprinklerMonitor(nil, "token")
	url := "https://github.com/octo/widgets/pull/7"

	sm.handleEvent(eventFor(url))
	sm.handleEvent(eventFor(url)) // inside dedup window, dropped

	if got := len(sm.eventChan); got != 1 {
		t.Errorf("Queued events = %d, want 1 after dedup", got)
	}

	sm.mu.Lock()
	sm.lastEventMap[url] = sm.lastEventMap[url].Add(-2 * eventDedupWindow)
	sm.mu.Unlock()

	sm.handleEvent(eventFor(url))
	if got := len(sm.eventChan); got != 2 {
		t.Errorf("Queued events = %d, want 2 once the window passed", got)
	}
}

func TestSprinklerIgnoresNonPREvents(t *testing.T) {
	sm := newSprinklerMonitor(nil, "token")

	event := eventFor("https://github.com/octo/widgets/pull/7")
	event.Type = "issue_comment"
	sm.handleEvent(event)

	sm.handleEvent(eventFor(""))

	if got := len(sm.eventChan); got != 0 {
		t.Errorf("Queued events = %d, want 0", got)
	}
}
