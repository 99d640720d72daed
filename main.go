package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

var (
	configPath = flag.String("config", "", "Path to YAML configuration file (optional)")
	prURL      = flag.String("pr", "", "Analyze a single PR and exit (e.g., https://github.com/owner/repo/pull/123)")
	dryRun     = flag.Bool("dry-run", false, "Run analysis without posting comments")
	sprinkler  = flag.Bool("sprinkler", false, "Also subscribe to the real-time PR event stream")
)

func main() {
	flag.Parse()

	settings, err := loadSettings(*configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	client, err := newGitHubClient(settings)
	if err != nil {
		log.Fatalf("Failed to create GitHub client: %v", err)
	}

	cache := newResultCache(settings.CacheEnabled, settings.cacheTTL(), settings.MaxCacheSize)
	monitor := newPerfMonitor(settings.MetricsMaxSamples)

	bot := &ReviewBot{
		client:  client,
		cache:   cache,
		monitor: monitor,
		dryRun:  *dryRun,
	}

	ctx := context.Background()

	if *prURL != "" {
		if err := analyzeOnce(ctx, bot, *prURL); err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
		return
	}

	if *sprinkler {
		token := os.Getenv("GITHUB_TOKEN")
		if token == "" {
			log.Fatal("Sprinkler mode requires GITHUB_TOKEN")
		}
		sm := newSprinklerMonitor(bot, token)
		if err := sm.start(ctx); err != nil {
			log.Fatalf("Failed to start event monitor: %v", err)
		}
		defer sm.stop()
	}

	server := newHTTPServer(settings, bot, cache, monitor)
	log.Printf("[SERVER] Code review assistant starting (environment: %s, cache: %t)",
		settings.Environment, settings.CacheEnabled)
	if err := server.listenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// analyzeOnce handles the one-shot -pr mode.
func analyzeOnce(ctx context.Context, bot *ReviewBot, url string) error {
	repo, number := parseRepoAndNumberFromURL(url)
	if repo == "" || number == 0 {
		return fmt.Errorf("invalid PR URL: %s", url)
	}

	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	start := time.Now()
	if err := bot.AnalyzePR(ctx, 0, repo, number); err != nil {
		return err
	}
	log.Printf("Analysis of %s#%d finished in %v", repo, number, time.Since(start).Round(time.Millisecond))
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nRuns as a webhook server by default; use -pr for a one-shot analysis.\n\n")
	flag.PrintDefaults()
}

func init() {
	flag.Usage = usage
}
