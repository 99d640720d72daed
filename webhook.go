package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
)

// webhookPayload carries the fields the bot needs from a pull_request event.
type webhookPayload struct {
	Action      string `json:"action"`
	PullRequest struct {
		Number int `json:"number"`
	} `json:"pull_request"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Installation struct {
		ID int64 `json:"id"`
	} `json:"installation"`
}

// verifySignature checks the X-Hub-Signature-256 header against the payload
// using a constant-time comparison.
func verifySignature(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// handleWebhook processes GitHub webhook deliveries. Verified pull_request
// events for opened/synchronize actions are analyzed asynchronously so the
// delivery responds well inside GitHub's timeout.
func (s *httpServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read payload", http.StatusBadRequest)
		return
	}

	if !verifySignature(payload, r.Header.Get("X-Hub-Signature-256"), s.settings.GitHubWebhookSecret) {
		log.Print("[WEBHOOK] Rejected delivery with invalid signature")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	switch eventType {
	case "ping":
		writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
		return
	case "pull_request":
		// Fall through below.
	default:
		log.Printf("[WEBHOOK] Ignoring event type %q", eventType)
		writeJSON(w, http.StatusOK, map[string]string{"message": "ignored"})
		return
	}

	var event webhookPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}

	if event.Action != "opened" && event.Action != "synchronize" {
		log.Printf("[WEBHOOK] Ignoring PR action %q", event.Action)
		writeJSON(w, http.StatusOK, map[string]string{"message": "ignored"})
		return
	}

	repo := event.Repository.FullName
	prNumber := event.PullRequest.Number
	installationID := event.Installation.ID
	log.Printf("[WEBHOOK] Queued analysis for %s#%d", repo, prNumber)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
		defer cancel()
		if err := s.bot.AnalyzePR(ctx, installationID, repo, prNumber); err != nil {
			log.Printf("[ERROR] Webhook analysis failed for %s#%d: %v", repo, prNumber, err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "analysis queued"})
}
