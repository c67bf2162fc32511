package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/stratushq/tenant_go_server/config"
	"github.com/stratushq/tenant_go_server/internal/database"
	"github.com/stratushq/tenant_go_server/internal/repository"
)

var (
	dryRun        = flag.Bool("dry-run", true, "Dry run mode, don't actually write")
	closeSessions = flag.Bool("close-sessions", true, "Close stale open sessions")
	pruneEvents   = flag.Bool("prune-events", true, "Prune old processed webhook events")
)

func main() {
	flag.Parse()

	log.Println("Starting cleanup task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	now := time.Now().UTC()

	// 1. Sessions whose tab never flushed: stamp an end time so reporting
	// does not count them as still open.
	if *closeSessions {
		staleAfter := time.Duration(cfg.Session.StaleAfterHours) * time.Hour
		if staleAfter <= 0 {
			staleAfter = 24 * time.Hour
		}
		cutoff := now.Add(-staleAfter)

		if *dryRun {
			log.Printf("Would close open sessions started before %s", cutoff)
		} else {
			closed, err := repository.NewSessionRepository(db).CloseStale(cutoff, now)
			if err != nil {
				log.Fatalf("Failed to close stale sessions: %v", err)
			}
			log.Printf("Closed %d stale sessions", closed)
		}
	}

	// 2. Processed webhook events past retention. Unprocessed rows are kept;
	// they mark events that may still be redelivered.
	if *pruneEvents {
		retention := time.Duration(cfg.Session.EventRetentionDays) * 24 * time.Hour
		if retention <= 0 {
			retention = 90 * 24 * time.Hour
		}
		cutoff := now.Add(-retention)

		if *dryRun {
			log.Printf("Would prune processed webhook events created before %s", cutoff)
		} else {
			pruned, err := repository.NewWebhookEventRepository(db).DeleteProcessedBefore(cutoff)
			if err != nil {
				log.Fatalf("Failed to prune webhook events: %v", err)
			}
			log.Printf("Pruned %d webhook events", pruned)
		}
	}

	log.Println("Cleanup finished")
}
