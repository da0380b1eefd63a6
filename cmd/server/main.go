package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"station-cargo-service/internal/adapters/cache"
	"station-cargo-service/internal/adapters/feed"
	"station-cargo-service/internal/adapters/repositories"
	"station-cargo-service/internal/api"
	"station-cargo-service/internal/config"
	"station-cargo-service/internal/platform/db"
	"station-cargo-service/internal/ports"
)

// main is the application composition root.
// It wires a network source (HTTP feed, Postgres or local SQLite) and an
// optional Redis snapshot cache behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := config.Get("PORT", "8080")

	repo, closer, err := buildNetworkSource()
	if err != nil {
		log.Fatal(err)
	}
	if closer != nil {
		defer closer.Close()
	}

	var viewCache ports.ViewCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()
		ttl, err := time.ParseDuration(config.Get("VIEW_CACHE_TTL", "30s"))
		if err != nil {
			log.Fatalf("invalid VIEW_CACHE_TTL: %v", err)
		}
		viewCache = cache.NewRedisViewCache(client, ttl)
		log.Printf("View snapshot cache enabled addr=%s ttl=%s", addr, ttl)
	}

	router := api.NewRouter(repo, viewCache)

	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// buildNetworkSource selects the snapshot backend: an upstream feed when
// FEED_URL is set, Postgres when DATABASE_URL is set, otherwise a local
// SQLite file initialized and seeded on startup.
func buildNetworkSource() (ports.NetworkRepository, *sql.DB, error) {
	if feedURL := os.Getenv("FEED_URL"); feedURL != "" {
		log.Printf("Loading network from feed url=%s", feedURL)
		return feed.NewHTTPNetworkSource(feedURL, os.Getenv("FEED_API_KEY"), nil), nil, nil
	}

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		pg, err := db.Open(databaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Println("Loading network from postgres")
		return repositories.NewSQLNetworkRepository(pg), pg, nil
	}

	dbPath := config.Get("DB_PATH", "data/app.db")
	seedPath := config.Get("SEED_PATH", "data/seeds/network.json")

	lite, err := openDB(dbPath)
	if err != nil {
		return nil, nil, err
	}

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(lite, seedPath); err != nil {
		lite.Close()
		return nil, nil, err
	}

	log.Printf("Loading network from sqlite path=%s", dbPath)
	return repositories.NewSQLNetworkRepository(lite), lite, nil
}

func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return db, nil
}

func initAndSeed(db *sql.DB, seedPath string) error {
	if err := repositories.InitSchema(db); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if err := repositories.SeedFromJSON(db, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}
