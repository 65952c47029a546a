package classes

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"calendly-backend/internal/analytics"
	"calendly-backend/internal/auth"
	"calendly-backend/internal/engine"
)

func GetClassesHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rows, err := dbx.QueryContext(r.Context(), `
			SELECT id, name, COALESCE(subject,'')
			FROM classes
			WHERE user_id = $1
			ORDER BY name
		`, uid)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), 500)
			return
		}
		defer rows.Close()

		list := []engine.ClassRecord{}
		for rows.Next() {
			var c engine.ClassRecord
			if err := rows.Scan(&c.ID, &c.Name, &c.Subject); err != nil {
				http.Error(w, "scan error: "+err.Error(), 500)
				return
			}
			list = append(list, c)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "db rows error", 500)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

// CreateClassHandler stores one class. Names run through the same
// typo-correction the planner applies, so "ap calclus" lands as
// "AP Calculus" no matter which path created it.
func CreateClassHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Subject string `json:"subject"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(body.Name) == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}

		c := engine.ClassRecord{
			ID:      body.ID,
			Name:    engine.CorrectClassName(body.Name),
			Subject: strings.TrimSpace(body.Subject),
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}

		_, err := dbx.ExecContext(r.Context(), `
			INSERT INTO classes (id, user_id, name, subject)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				subject = EXCLUDED.subject
			WHERE classes.user_id = EXCLUDED.user_id
		`, c.ID, uid, c.Name, c.Subject)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), 500)
			return
		}

		{
			env := analytics.FromRequest(r)
			env.UserID = uid
			props := map[string]any{"class_id": c.ID, "subject": c.Subject}
			_ = analytics.Log(r.Context(), dbx, env, "class_created", props, analytics.SourceEventKeyFromRequest(r))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c)
	}
}

func DeleteClassHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}

		res, err := dbx.Exec(`DELETE FROM classes WHERE id=$1 AND user_id=$2`, id, uid)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), 500)
			return
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			http.Error(w, "class not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}
