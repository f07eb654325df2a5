package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"github.com/achievemetrics/facpoints/internal/api"
	"github.com/achievemetrics/facpoints/internal/db"
	"github.com/achievemetrics/facpoints/internal/middleware"
	"github.com/achievemetrics/facpoints/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	addr := utils.SafeEnv("FACPOINTS_ADDR", ":8080")
	baseURL := utils.SafeEnv("FACPOINTS_BASE_URL", "http://localhost:8080")
	dbPath := utils.SafeEnv("FACPOINTS_DB", "")
	migrationsDir := utils.SafeEnv("FACPOINTS_MIGRATIONS_DIR", "")

	var store api.Store
	if dbPath == "" {
		log.Printf("FACPOINTS_DB not set, using in-memory store (data is lost on restart)")
		store = api.NewMemoryStore()
	} else {
		sqlDB, err := sql.Open("sqlite3", dbPath)
		if err != nil {
			log.Fatalf("open sqlite database %s: %v", dbPath, err)
		}
		defer sqlDB.Close()
		if err := db.RunMigrations(sqlDB, migrationsDir); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
		store, err = db.NewStore(sqlDB)
		if err != nil {
			log.Fatalf("init store: %v", err)
		}
	}

	mux := http.NewServeMux()
	api.NewRouter(store, baseURL).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":   true,
			"name": "facpoints API",
		})
	})

	handler := middleware.SecureHeaders(middleware.CORS(middleware.WithAuth(mux)))

	log.Printf("facpoints server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
