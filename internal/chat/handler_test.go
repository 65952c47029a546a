package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"calendly-backend/internal/engine"
)

func TestBuildTranscript(t *testing.T) {
	history := []engine.ConversationTurn{
		{Author: "user", Text: "math test next friday"},
		{Author: "ai", Text: "What's the full name of this class?"},
		{Author: "user", Text: "  ap calculus  "},
	}

	got := buildTranscript(history)
	lines := strings.Split(got, "\n")
	assert.Equal(t, []string{
		"User: math test next friday",
		"Assistant: What's the full name of this class?",
		"User: ap calculus",
	}, lines)
}

func TestBuildTranscriptWindow(t *testing.T) {
	var history []engine.ConversationTurn
	for i := 0; i < 12; i++ {
		history = append(history, engine.ConversationTurn{Author: "user", Text: "turn"})
	}

	got := buildTranscript(history)
	assert.Len(t, strings.Split(got, "\n"), historyWindow)
}

func TestFillIDs(t *testing.T) {
	res := &engine.Result{
		NewTasks:   []engine.TaskRecord{{Title: "AP Calculus Test"}, {ID: "keep", Title: "Prep"}},
		NewClasses: []engine.ClassRecord{{Name: "AP Calculus"}},
	}

	fillIDs(res)

	assert.NotEmpty(t, res.NewTasks[0].ID)
	assert.Equal(t, "keep", res.NewTasks[1].ID)
	assert.NotEmpty(t, res.NewClasses[0].ID)
}
