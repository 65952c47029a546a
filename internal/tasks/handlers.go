package tasks

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"calendly-backend/internal/analytics"
	"calendly-backend/internal/auth"
	"calendly-backend/internal/engine"
)

// GetTasksHandler lists the caller's tasks, newest deadline first.
// ?grouped=1 buckets them the way the task list renders: overdue, today,
// this week, next week, later.
func GetTasksHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		list, err := listTasks(dbx, r, uid)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), 500)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("grouped") == "1" {
			now := time.Now()
			grouped := map[string][]engine.TaskRecord{
				engine.CategoryOverdue:  {},
				engine.CategoryToday:    {},
				engine.CategoryThisWeek: {},
				engine.CategoryNextWeek: {},
				engine.CategoryLater:    {},
			}
			for _, t := range list {
				bucket := engine.CategorizeTask(t, now)
				grouped[bucket] = append(grouped[bucket], t)
			}
			_ = json.NewEncoder(w).Encode(grouped)
			return
		}

		_ = json.NewEncoder(w).Encode(list)
	}
}

// UpsertTasksHandler accepts one task or an array and writes them through.
// The client owns the ids, so sync retries are idempotent.
func UpsertTasksHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read error", http.StatusBadRequest)
			return
		}

		var records []engine.TaskRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			var one engine.TaskRecord
			if err := json.Unmarshal(raw, &one); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
			records = []engine.TaskRecord{one}
		}

		for _, t := range records {
			if t.ID == "" || t.Title == "" {
				http.Error(w, "id and title are required", http.StatusBadRequest)
				return
			}
			if err := upsertTask(dbx, r, uid, t); err != nil {
				http.Error(w, "db error: "+err.Error(), 500)
				return
			}
		}

		// analytics: counts only, never raw text
		{
			env := analytics.FromRequest(r)
			env.UserID = uid
			props := map[string]any{"count": len(records)}
			_ = analytics.Log(r.Context(), dbx, env, "tasks_synced", props, analytics.SourceEventKeyFromRequest(r))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "count": len(records)})
	}
}

// ToggleTaskHandler flips the completed flag on one owned task.
func ToggleTaskHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}

		var completed bool
		err := dbx.QueryRow(`
			UPDATE tasks
			SET completed = NOT completed
			WHERE id=$1 AND user_id=$2
			RETURNING completed
		`, body.ID, uid).Scan(&completed)
		if err != nil {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}

		if completed {
			env := analytics.FromRequest(r)
			env.UserID = uid
			props := map[string]any{"task_id": body.ID}
			_ = analytics.Log(r.Context(), dbx, env, "task_completed", props, analytics.SourceEventKeyFromRequest(r))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": body.ID, "completed": completed})
	}
}

// DeleteTaskHandler removes one owned task by ?id=.
func DeleteTaskHandler(dbx *sql.DB) http.HandlerFunc {
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

		res, err := dbx.Exec(`DELETE FROM tasks WHERE id=$1 AND user_id=$2`, id, uid)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), 500)
			return
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func listTasks(dbx *sql.DB, r *http.Request, uid string) ([]engine.TaskRecord, error) {
	rows, err := dbx.QueryContext(r.Context(), `
		SELECT id, title, time_str,
			COALESCE(duration,''), COALESCE(type,''), COALESCE(priority,''),
			COALESCE(description,''), COALESCE(resources,'[]'::jsonb),
			completed
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []engine.TaskRecord{}
	for rows.Next() {
		var (
			t       engine.TaskRecord
			resBlob []byte
		)
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Time,
			&t.Duration, &t.Type, &t.Priority,
			&t.Description, &resBlob,
			&t.Completed,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(resBlob, &t.Resources)
		list = append(list, t)
	}
	return list, rows.Err()
}

func upsertTask(dbx *sql.DB, r *http.Request, uid string, t engine.TaskRecord) error {
	resBlob, err := json.Marshal(t.Resources)
	if err != nil {
		resBlob = []byte("[]")
	}
	_, err = dbx.ExecContext(r.Context(), `
		INSERT INTO tasks (id, user_id, title, time_str, duration, type, priority, description, resources, completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			time_str = EXCLUDED.time_str,
			duration = EXCLUDED.duration,
			type = EXCLUDED.type,
			priority = EXCLUDED.priority,
			description = EXCLUDED.description,
			resources = EXCLUDED.resources,
			completed = EXCLUDED.completed
		WHERE tasks.user_id = EXCLUDED.user_id
	`, t.ID, uid, t.Title, t.Time, t.Duration, t.Type, t.Priority, t.Description, string(resBlob), t.Completed)
	return err
}
