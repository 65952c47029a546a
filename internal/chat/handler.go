package chat

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"calendly-backend/internal/ai"
	"calendly-backend/internal/analytics"
	"calendly-backend/internal/auth"
	"calendly-backend/internal/engine"
)

// historyWindow is how many trailing turns reach the planner. The engine
// only ever looks back as far as its own last question, so five is plenty.
const historyWindow = 5

// ChatHandler turns a conversation into a schedule. The LLM gets the first
// shot; any failure there drops silently to the deterministic planner, so
// the endpoint never surfaces a model error to the user.
func ChatHandler(dbx *sql.DB, aiClient *ai.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			History []engine.ConversationTurn `json:"history"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if len(body.History) == 0 {
			http.Error(w, "history is required", http.StatusBadRequest)
			return
		}

		transcript := buildTranscript(body.History)

		tasks, activities, classes, err := loadContext(dbx, r, uid)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), 500)
			return
		}

		now := time.Now()
		source := "llm"

		result, err := aiClient.GenerateSchedule(r.Context(), transcript, tasks, activities, classes, now)
		if err != nil {
			if !errors.Is(err, ai.ErrNoKey) {
				log.Printf("[WARN] ai plan failed, using local planner: %v", err)
			}
			local := engine.BuildPlan(transcript, tasks, activities, classes, now)
			result = &local
			source = "engine"
		}

		fillIDs(result)

		if err := persistResult(dbx, r, uid, result); err != nil {
			http.Error(w, "db error: "+err.Error(), 500)
			return
		}

		// analytics: shape only, never conversation text
		{
			env := analytics.FromRequest(r)
			env.UserID = uid
			props := map[string]any{
				"source":         source,
				"turns":          len(body.History),
				"new_tasks":      len(result.NewTasks),
				"new_classes":    len(result.NewClasses),
				"new_activities": len(result.NewActivities),
			}
			_ = analytics.Log(r.Context(), dbx, env, "chat_plan_generated", props, analytics.SourceEventKeyFromRequest(r))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	}
}

// buildTranscript renders the trailing turns in the line format the planner
// parses: "User: ..." / "Assistant: ...".
func buildTranscript(history []engine.ConversationTurn) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		prefix := "Assistant: "
		if strings.EqualFold(turn.Author, "user") {
			prefix = "User: "
		}
		lines = append(lines, prefix+strings.TrimSpace(turn.Text))
	}
	return strings.Join(lines, "\n")
}

// fillIDs assigns ids to records the model returned without one.
func fillIDs(res *engine.Result) {
	for i := range res.NewTasks {
		if res.NewTasks[i].ID == "" {
			res.NewTasks[i].ID = uuid.NewString()
		}
	}
	for i := range res.NewClasses {
		if res.NewClasses[i].ID == "" {
			res.NewClasses[i].ID = uuid.NewString()
		}
	}
	for i := range res.NewActivities {
		if res.NewActivities[i].ID == "" {
			res.NewActivities[i].ID = uuid.NewString()
		}
	}
}

func loadContext(dbx *sql.DB, r *http.Request, uid string) ([]engine.TaskRecord, []engine.ActivityRecord, []engine.ClassRecord, error) {
	tasks := []engine.TaskRecord{}
	rows, err := dbx.QueryContext(r.Context(), `
		SELECT id, title, time_str,
			COALESCE(duration,''), COALESCE(type,''), COALESCE(priority,''),
			COALESCE(description,''), completed
		FROM tasks
		WHERE user_id = $1
	`, uid)
	if err != nil {
		return nil, nil, nil, err
	}
	for rows.Next() {
		var t engine.TaskRecord
		if err := rows.Scan(&t.ID, &t.Title, &t.Time, &t.Duration, &t.Type, &t.Priority, &t.Description, &t.Completed); err != nil {
			rows.Close()
			return nil, nil, nil, err
		}
		tasks = append(tasks, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, nil, err
	}

	activities := []engine.ActivityRecord{}
	rows, err = dbx.QueryContext(r.Context(), `
		SELECT id, name, time_str,
			COALESCE(frequency,''), COALESCE(applied_days, '{}'),
			COALESCE(type,''), is_free_slot
		FROM activities
		WHERE user_id = $1
	`, uid)
	if err != nil {
		return nil, nil, nil, err
	}
	for rows.Next() {
		var a engine.ActivityRecord
		if err := rows.Scan(&a.ID, &a.Name, &a.Time, &a.Frequency, pq.Array(&a.AppliedDays), &a.Type, &a.IsFreeSlot); err != nil {
			rows.Close()
			return nil, nil, nil, err
		}
		activities = append(activities, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, nil, err
	}

	classes := []engine.ClassRecord{}
	rows, err = dbx.QueryContext(r.Context(), `
		SELECT id, name, COALESCE(subject,'')
		FROM classes
		WHERE user_id = $1
	`, uid)
	if err != nil {
		return nil, nil, nil, err
	}
	for rows.Next() {
		var c engine.ClassRecord
		if err := rows.Scan(&c.ID, &c.Name, &c.Subject); err != nil {
			rows.Close()
			return nil, nil, nil, err
		}
		classes = append(classes, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, nil, err
	}

	return tasks, activities, classes, nil
}

func persistResult(dbx *sql.DB, r *http.Request, uid string, res *engine.Result) error {
	for _, t := range res.NewTasks {
		resBlob, err := json.Marshal(t.Resources)
		if err != nil {
			resBlob = []byte("[]")
		}
		_, err = dbx.ExecContext(r.Context(), `
			INSERT INTO tasks (id, user_id, title, time_str, duration, type, priority, description, resources, completed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, FALSE)
			ON CONFLICT (id) DO NOTHING
		`, t.ID, uid, t.Title, t.Time, t.Duration, t.Type, t.Priority, t.Description, string(resBlob))
		if err != nil {
			return err
		}
	}
	for _, c := range res.NewClasses {
		if _, err := dbx.ExecContext(r.Context(), `
			INSERT INTO classes (id, user_id, name, subject)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING
		`, c.ID, uid, c.Name, c.Subject); err != nil {
			return err
		}
	}
	for _, a := range res.NewActivities {
		if _, err := dbx.ExecContext(r.Context(), `
			INSERT INTO activities (id, user_id, name, time_str, frequency, applied_days, type, is_free_slot)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING
		`, a.ID, uid, a.Name, a.Time, a.Frequency, pq.Array(a.AppliedDays), a.Type, a.IsFreeSlot); err != nil {
			return err
		}
	}
	return nil
}
