package ai

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateScheduleRequiresKey(t *testing.T) {
	c := New("", "")
	_, err := c.GenerateSchedule(context.Background(), "User: hi", nil, nil, nil, time.Now())
	assert.ErrorIs(t, err, ErrNoKey)

	c = New("YOUR_API_KEY_HERE", "")
	_, err = c.GenerateSchedule(context.Background(), "User: hi", nil, nil, nil, time.Now())
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestParseResult(t *testing.T) {
	res, err := parseResult(`{"message":"Done!","newTasks":[{"id":"","title":"AP Calculus Test","time":"Jan 17, 8:15 AM"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "Done!", res.Message)
	require.Len(t, res.NewTasks, 1)
	// null arrays normalize to empty slices
	assert.NotNil(t, res.NewClasses)
	assert.NotNil(t, res.NewActivities)
}

func TestParseResultRejectsBadPayloads(t *testing.T) {
	_, err := parseResult("not json at all")
	assert.Error(t, err)

	_, err = parseResult(`{"newTasks":[]}`)
	assert.Error(t, err, "a plan without a message is unusable")
}

func TestSystemPromptCalendarIndex(t *testing.T) {
	now := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	prompt := buildSystemPrompt(now)

	assert.Contains(t, prompt, "[INDEX 0] -> Wednesday, Jan 15, 2025 (TODAY - THE STARTING POINT)")
	assert.Contains(t, prompt, "[INDEX 13] -> Tuesday, Jan 28, 2025")
	assert.Equal(t, 1, strings.Count(prompt, "TODAY - THE STARTING POINT"))
}
