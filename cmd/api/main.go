package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/rs/cors"

	"calendly-backend/internal/activities"
	"calendly-backend/internal/ai"
	"calendly-backend/internal/analytics"
	"calendly-backend/internal/auth"
	"calendly-backend/internal/chat"
	"calendly-backend/internal/classes"
	"calendly-backend/internal/config"
	"calendly-backend/internal/db"
	"calendly-backend/internal/tasks"
)

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.ConnString())
	if err != nil {
		log.Fatal("❌ Failed to connect DB:", err)
	}
	defer database.Close()

	log.Println("✅ Connected to PostgreSQL!")

	aiClient := ai.New(cfg.AIKey, cfg.AIModel)
	if cfg.AIKey == "" {
		log.Println("⚠️  No AI_API_KEY set, running on the local planner only")
	}

	mw := auth.New([]byte(cfg.JWTSecret))

	mux := http.NewServeMux()

	// Health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// ----- CHAT API -----
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			mw.Wrap(chat.ChatHandler(database, aiClient))(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// ----- TASKS API -----
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			mw.Wrap(tasks.GetTasksHandler(database))(w, r)
		case http.MethodPost:
			mw.Wrap(tasks.UpsertTasksHandler(database))(w, r)
		case http.MethodDelete:
			mw.Wrap(tasks.DeleteTaskHandler(database))(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/tasks/toggle", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			mw.Wrap(tasks.ToggleTaskHandler(database))(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// ----- CLASSES API -----
	mux.HandleFunc("/classes", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			mw.Wrap(classes.GetClassesHandler(database))(w, r)
		case http.MethodPost:
			mw.Wrap(classes.CreateClassHandler(database))(w, r)
		case http.MethodDelete:
			mw.Wrap(classes.DeleteClassHandler(database))(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// ----- ACTIVITIES API -----
	mux.HandleFunc("/activities", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			mw.Wrap(activities.GetActivitiesHandler(database))(w, r)
		case http.MethodPost:
			mw.Wrap(activities.CreateActivityHandler(database))(w, r)
		case http.MethodDelete:
			mw.Wrap(activities.DeleteActivityHandler(database))(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// ----- EVENTS API -----
	mux.HandleFunc("/events/app-opened", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			mw.Wrap(analytics.AppOpenedHandler(database))(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Platform", "X-App-Version", "X-Session-Id", "Idempotency-Key"},
		AllowCredentials: true,
	})

	handler := c.Handler(mux)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Println("🚀 API server is running on", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
