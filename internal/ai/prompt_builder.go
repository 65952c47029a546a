package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"calendly-backend/internal/engine"
)

// buildUserMessage packs the user's schedule context plus the transcript
// into a single user turn, mirroring the context shape the planner sees.
func buildUserMessage(
	userInput string,
	tasks []engine.TaskRecord,
	activities []engine.ActivityRecord,
	classes []engine.ClassRecord,
) string {
	ctx := map[string]interface{}{
		"tasks":      tasks,
		"activities": activities,
		"schedule":   classes,
	}
	blob, _ := json.Marshal(ctx)

	var b strings.Builder
	fmt.Fprintf(&b, "Current Task Context: %s", blob)

	if len(classes) > 0 {
		b.WriteString("\n\nUser's Classes:\n")
		for _, c := range classes {
			fmt.Fprintf(&b, "- %s (%s)\n", c.Name, c.Subject)
		}
	}

	fmt.Fprintf(&b, "\nUser Message: %q", userInput)
	return b.String()
}
