package main

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GitHubClient handles all GitHub API interactions. It authenticates as a
// GitHub App, minting short-lived installation tokens on demand, and falls
// back to a personal token from the environment when no App is configured.
type GitHubClient struct {
	httpClient *http.Client
	limiter    *RateLimiter
	appID      int64
	signingKey *rsa.PrivateKey
	fallback   string // GITHUB_TOKEN, used when installationID is zero

	mu            sync.Mutex
	installTokens map[int64]installToken
}

type installToken struct {
	token     string
	expiresAt time.Time
}

// ChangedFile represents a file changed in a pull request.
type ChangedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Patch     string `json:"patch"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
}

// errNoCredentials is returned when neither App credentials nor a fallback
// token are available for a request.
var errNoCredentials = errors.New("no GitHub credentials configured")

// newGitHubClient creates a client from the configured App credentials.
func newGitHubClient(settings *Settings) (*GitHubClient, error) {
	c := &GitHubClient{
		httpClient:    &http.Client{Timeout: httpTimeout * time.Second},
		limiter:       NewRateLimiter(apiRateLimit, time.Hour),
		appID:         settings.GitHubAppID,
		fallback:      os.Getenv("GITHUB_TOKEN"),
		installTokens: make(map[int64]installToken),
	}

	if settings.GitHubAppID != 0 {
		pem, err := settings.privateKey()
		if err != nil {
			return nil, err
		}
		key, err := jwt.ParseRSAPrivateKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("parse GitHub App private key: %w", err)
		}
		c.signingKey = key
		log.Printf("[GITHUB] Authenticating as App %d", settings.GitHubAppID)
	} else if c.fallback != "" {
		log.Print("[GITHUB] No App configured, using GITHUB_TOKEN")
	} else {
		log.Print("[GITHUB] No credentials configured; API calls will fail")
	}

	return c, nil
}

// appJWT mints the short-lived RS256 JWT GitHub Apps authenticate with.
func (c *GitHubClient) appJWT() (string, error) {
	if c.signingKey == nil {
		return "", errNoCredentials
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-appJWTBackdate)),
		ExpiresAt: jwt.NewNumericDate(now.Add(appJWTLifetime)),
		Issuer:    strconv.FormatInt(c.appID, 10),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.signingKey)
}

// installationToken returns an access token for the installation, minting a
// fresh one when the cached token is near expiry.
func (c *GitHubClient) installationToken(ctx context.Context, installationID int64) (string, error) {
	c.mu.Lock()
	if tok, ok := c.installTokens[installationID]; ok && time.Now().Before(tok.expiresAt) {
		c.mu.Unlock()
		return tok.token, nil
	}
	c.mu.Unlock()

	appJWT, err := c.appJWT()
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://api.github.com/app/installations/%d/access_tokens", installationID)
	resp, err := c.doRequest(ctx, http.MethodPost, url, "Bearer "+appJWT, nil)
	if err != nil {
		return "", fmt.Errorf("request installation token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("installation token request failed (status %d)", resp.StatusCode)
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode installation token: %w", err)
	}

	c.mu.Lock()
	c.installTokens[installationID] = installToken{
		token:     data.Token,
		expiresAt: time.Now().Add(installTokenTTL),
	}
	c.mu.Unlock()

	log.Printf("[GITHUB] Minted installation token for %d", installationID)
	return data.Token, nil
}

// authFor resolves the Authorization header for an installation, using the
// fallback token when no installation is given.
func (c *GitHubClient) authFor(ctx context.Context, installationID int64) (string, error) {
	if installationID != 0 && c.signingKey != nil {
		tok, err := c.installationToken(ctx, installationID)
		if err != nil {
			return "", err
		}
		return "token " + tok, nil
	}
	if c.fallback != "" {
		return "token " + c.fallback, nil
	}
	return "", errNoCredentials
}

// doRequest makes an HTTP request to the GitHub API with rate limiting and
// retry logic. Server-side failures (5xx) are retried with backoff.
func (c *GitHubClient) doRequest(ctx context.Context, method, url, authorization string, body any) (*http.Response, error) {
	log.Printf("[HTTP] %s %s", method, url)

	var resp *http.Response
	err := retryWithBackoff(ctx, fmt.Sprintf("%s %s", method, url), func() error {
		c.limiter.Wait()

		var bodyReader io.Reader
		if body != nil {
			bodyBytes, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("marshal request body: %w", err)
			}
			bodyReader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", authorization)
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		r, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		if r.StatusCode >= http.StatusInternalServerError {
			r.Body.Close()
			return fmt.Errorf("server error (status %d)", r.StatusCode)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// prFiles fetches the changed files of a pull request, following pagination.
func (c *GitHubClient) prFiles(ctx context.Context, installationID int64, repo string, prNumber int) ([]ChangedFile, error) {
	if prNumber <= 0 || prNumber > maxPRNumber {
		return nil, fmt.Errorf("invalid PR number: %d", prNumber)
	}

	auth, err := c.authFor(ctx, installationID)
	if err != nil {
		return nil, err
	}

	var files []ChangedFile
	for page := 1; ; page++ {
		url := fmt.Sprintf("https://api.github.com/repos/%s/pulls/%d/files?per_page=%d&page=%d",
			repo, prNumber, perPageLimit, page)
		resp, err := c.doRequest(ctx, http.MethodGet, url, auth, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch PR files: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch PR files failed (status %d)", resp.StatusCode)
		}

		var pageFiles []ChangedFile
		err = json.NewDecoder(resp.Body).Decode(&pageFiles)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode PR files: %w", err)
		}

		files = append(files, pageFiles...)
		if len(pageFiles) < perPageLimit {
			break
		}
	}

	log.Printf("[GITHUB] Fetched %d changed files for %s#%d", len(files), repo, prNumber)
	return files, nil
}

// postComment posts an issue comment on a pull request.
func (c *GitHubClient) postComment(ctx context.Context, installationID int64, repo string, prNumber int, body string) error {
	auth, err := c.authFor(ctx, installationID)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("https://api.github.com/repos/%s/issues/%d/comments", repo, prNumber)
	resp, err := c.doRequest(ctx, http.MethodPost, url, auth, map[string]string{"body": body})
	if err != nil {
		return fmt.Errorf("post comment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("post comment failed (status %d)", resp.StatusCode)
	}

	log.Printf("[GITHUB] Posted review comment on %s#%d", repo, prNumber)
	return nil
}
