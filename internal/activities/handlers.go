package activities

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"calendly-backend/internal/analytics"
	"calendly-backend/internal/auth"
	"calendly-backend/internal/engine"
)

func GetActivitiesHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rows, err := dbx.QueryContext(r.Context(), `
			SELECT id, name, time_str,
				COALESCE(frequency,''), COALESCE(applied_days, '{}'),
				COALESCE(type,''), is_free_slot
			FROM activities
			WHERE user_id = $1
			ORDER BY created_at
		`, uid)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), 500)
			return
		}
		defer rows.Close()

		list := []engine.ActivityRecord{}
		for rows.Next() {
			var a engine.ActivityRecord
			if err := rows.Scan(
				&a.ID, &a.Name, &a.Time,
				&a.Frequency, pq.Array(&a.AppliedDays),
				&a.Type, &a.IsFreeSlot,
			); err != nil {
				http.Error(w, "scan error: "+err.Error(), 500)
				return
			}
			list = append(list, a)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "db rows error", 500)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func CreateActivityHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var a engine.ActivityRecord
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Time) == "" {
			http.Error(w, "name and time are required", http.StatusBadRequest)
			return
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}

		_, err := dbx.ExecContext(r.Context(), `
			INSERT INTO activities (id, user_id, name, time_str, frequency, applied_days, type, is_free_slot)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				time_str = EXCLUDED.time_str,
				frequency = EXCLUDED.frequency,
				applied_days = EXCLUDED.applied_days,
				type = EXCLUDED.type,
				is_free_slot = EXCLUDED.is_free_slot
			WHERE activities.user_id = EXCLUDED.user_id
		`, a.ID, uid, a.Name, a.Time, a.Frequency, pq.Array(a.AppliedDays), a.Type, a.IsFreeSlot)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), 500)
			return
		}

		{
			env := analytics.FromRequest(r)
			env.UserID = uid
			props := map[string]any{
				"activity_id":  a.ID,
				"frequency":    a.Frequency,
				"is_free_slot": a.IsFreeSlot,
			}
			_ = analytics.Log(r.Context(), dbx, env, "activity_created", props, analytics.SourceEventKeyFromRequest(r))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a)
	}
}

func DeleteActivityHandler(dbx *sql.DB) http.HandlerFunc {
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

		res, err := dbx.Exec(`DELETE FROM activities WHERE id=$1 AND user_id=$2`, id, uid)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), 500)
			return
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			http.Error(w, "activity not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}
