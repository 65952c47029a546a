package engine

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taskByTitle(tasks []TaskRecord, needle string) *TaskRecord {
	for i := range tasks {
		if strings.Contains(tasks[i].Title, needle) {
			return &tasks[i]
		}
	}
	return nil
}

// assertNoOverlaps checks the core invariant: no two records on the same day
// share any part of their [start, start+duration) interval.
func assertNoOverlaps(t *testing.T, tasks []TaskRecord) {
	t.Helper()
	byDay := map[string][]interval{}
	for _, task := range tasks {
		parts := strings.SplitN(task.Time, ",", 2)
		require.Len(t, parts, 2, "wire time shape: %q", task.Time)
		start, ok := ParseClock(parts[1])
		require.True(t, ok, task.Time)
		byDay[parts[0]] = append(byDay[parts[0]], interval{start, start + ParseDurationHours(task.Duration)})
	}
	for dayKey, ivs := range byDay {
		sort.Slice(ivs, func(i, j int) bool { return ivs[i].start < ivs[j].start })
		for i := 1; i < len(ivs); i++ {
			assert.GreaterOrEqual(t, ivs[i].start, ivs[i-1].end, "overlap on %s", dayKey)
		}
	}
}

func TestBuildPlanMissingClassAsksForName(t *testing.T) {
	res := BuildPlan("User: Math test next Friday", nil, nil, nil, refWednesday)
	assert.Empty(t, res.NewTasks)
	assert.Empty(t, res.NewClasses)
	assert.Contains(t, strings.ToLower(res.Message), "full name of this class")
}

func TestBuildPlanTestWithMatchingClass(t *testing.T) {
	res := BuildPlan("User: Math test next Friday", nil, nil, testClasses, refWednesday)

	testTask := taskByTitle(res.NewTasks, "AP Calculus Test")
	require.NotNil(t, testTask)
	assert.Equal(t, "Jan 17, 8:15 AM", testTask.Time)
	assert.Equal(t, KindDeadline, testTask.Type)
	assert.Equal(t, PriorityHigh, testTask.Priority)

	var studies []TaskRecord
	for _, task := range res.NewTasks {
		if task.Type == KindStudy {
			studies = append(studies, task)
		}
	}
	require.NotEmpty(t, studies)
	assert.LessOrEqual(t, len(studies), 2)

	// Final review sits exactly one day before the test.
	review := taskByTitle(res.NewTasks, "Final Review")
	require.NotNil(t, review)
	assert.True(t, strings.HasPrefix(review.Time, "Jan 16,"), review.Time)
	assert.Equal(t, PriorityHigh, review.Priority)

	assertNoOverlaps(t, res.NewTasks)
}

func TestBuildPlanGlobalExamBypassesClassCheck(t *testing.T) {
	res := BuildPlan("User: Gaokao in 3 days", nil, nil, nil, refWednesday)
	require.NotEmpty(t, res.NewTasks, "global exams must not require a class")

	testTask := taskByTitle(res.NewTasks, "Gaokao Test")
	require.NotNil(t, testTask)
	// No date expression: deadline defaults to reference + 3 days.
	assert.True(t, strings.HasPrefix(testTask.Time, "Jan 18,"), testTask.Time)
	assertNoOverlaps(t, res.NewTasks)
}

func TestBuildPlanCommonWordActIsNotAnExam(t *testing.T) {
	res := BuildPlan("User: balancing act tomorrow", nil, nil, testClasses, refWednesday)
	assert.Empty(t, res.NewTasks, "casual 'act' must not schedule an exam")

	res = BuildPlan("User: ACT test tomorrow", nil, nil, nil, refWednesday)
	require.NotEmpty(t, res.NewTasks)
	assert.NotNil(t, taskByTitle(res.NewTasks, "ACT Test"))
}

func TestBuildPlanDuplicateTestGuard(t *testing.T) {
	existing := []TaskRecord{
		{ID: "t1", Title: "AP Calculus Test", Time: "Jan 20, 8:15 AM", Duration: "1h", Type: KindDeadline},
	}
	res := BuildPlan("User: I have a math test on Jan 20", existing, nil, testClasses, refWednesday)
	assert.Empty(t, res.NewTasks)
	assert.Contains(t, strings.ToLower(res.Message), "reschedule")
	// The engine can only add records, so the copy must not promise a move.
	assert.Contains(t, strings.ToLower(res.Message), "remove the old test")

	// Explicit reschedule wording goes through.
	res = BuildPlan("User: reschedule my math test to Jan 22", existing, nil, testClasses, refWednesday)
	assert.NotEmpty(t, res.NewTasks)
}

func TestBuildPlanPastDateRefused(t *testing.T) {
	res := BuildPlan("User: history test on Jan 5", nil, nil, testClasses, refWednesday)
	assert.Empty(t, res.NewTasks)
	assert.Contains(t, strings.ToLower(res.Message), "past")
}

func TestBuildPlanNoTaskMentionIsSmallTalk(t *testing.T) {
	res := BuildPlan("User: hello!", nil, nil, testClasses, refWednesday)
	assert.Empty(t, res.NewTasks)
	assert.Contains(t, res.Message, "Calendly")

	res = BuildPlan("User: thanks so much", nil, nil, testClasses, refWednesday)
	assert.Empty(t, res.NewTasks)
	assert.Contains(t, strings.ToLower(res.Message), "welcome")
}

func TestBuildPlanClassNameFollowUp(t *testing.T) {
	transcript := strings.Join([]string{
		"User: Math test next Friday",
		"Assistant: " + askClassNameReply("Math"),
		"User: ap calclus",
	}, "\n")

	res := BuildPlan(transcript, nil, nil, nil, refWednesday)

	require.Len(t, res.NewClasses, 1)
	assert.Equal(t, "AP Calculus", res.NewClasses[0].Name, "typo should be corrected")
	assert.NotEmpty(t, res.NewClasses[0].ID)

	require.NotEmpty(t, res.NewTasks, "plan resumes for the original request")
	testTask := taskByTitle(res.NewTasks, "AP Calculus Test")
	require.NotNil(t, testTask)
	assert.True(t, strings.HasPrefix(testTask.Time, "Jan 17,"), testTask.Time)
	assert.Contains(t, res.Message, "Added AP Calculus")
}

func TestBuildPlanClassNameFollowUpKeepsSubject(t *testing.T) {
	transcript := strings.Join([]string{
		"User: Math test next Friday",
		"Assistant: " + askClassNameReply("Math"),
		"User: ap calculus",
	}, "\n")

	res := BuildPlan(transcript, nil, nil, nil, refWednesday)

	require.Len(t, res.NewClasses, 1)
	cls := res.NewClasses[0]
	assert.Equal(t, "AP Calculus", cls.Name)
	// The reply is the class NAME; the class keeps the subject the user
	// originally asked about, not a subject parsed out of the name.
	assert.Equal(t, "Math", cls.Subject)

	// A later request by subject finds the stored class.
	later := ResolveSubject("math quiz on Jan 30", res.NewClasses)
	require.Equal(t, SubjectClass, later.Kind)
	assert.Equal(t, "AP Calculus", later.DisplayName)
}

func TestBuildPlanIntensityNegotiation(t *testing.T) {
	classes := []ClassRecord{{ID: "c3", Name: "AP Physics", Subject: "Physics"}}

	first := BuildPlan("User: physics exam on Feb 20", nil, nil, classes, refWednesday)
	assert.Empty(t, first.NewTasks, "far-out tests ask for intensity first")
	require.Contains(t, strings.ToLower(first.Message), askIntensityPhrase)

	transcript := strings.Join([]string{
		"User: physics exam on Feb 20",
		"Assistant: " + first.Message,
		"User: hardcore please",
	}, "\n")
	second := BuildPlan(transcript, nil, nil, classes, refWednesday)

	testTask := taskByTitle(second.NewTasks, "AP Physics Test")
	require.NotNil(t, testTask)
	assert.True(t, strings.HasPrefix(testTask.Time, "Feb 20,"), testTask.Time)

	studies := 0
	for _, task := range second.NewTasks {
		if task.Type == KindStudy {
			studies++
		}
	}
	assert.Equal(t, 7, studies, "hardcore schedules 7 sessions")

	review := taskByTitle(second.NewTasks, "Final Review")
	require.NotNil(t, review)
	assert.True(t, strings.HasPrefix(review.Time, "Feb 19,"), review.Time)
	assertNoOverlaps(t, second.NewTasks)
}

func TestBuildPlanTimeNegotiation(t *testing.T) {
	transcript := strings.Join([]string{
		"User: math homework due tomorrow",
		"Assistant: " + noSlotReply("AP Calculus"),
		"User: how about 9pm",
	}, "\n")
	res := BuildPlan(transcript, nil, nil, testClasses, refWednesday)

	work := taskByTitle(res.NewTasks, "AP Calculus Homework")
	require.NotNil(t, work)
	assert.Equal(t, "Jan 16, 9:00 PM", work.Time)

	due := taskByTitle(res.NewTasks, "AP Calculus DUE")
	require.NotNil(t, due)
	assert.Equal(t, "Jan 16, 11:59 PM", due.Time)
}

func TestBuildPlanAssignmentAvoidsBusyPreferredHour(t *testing.T) {
	existing := []TaskRecord{
		{ID: "t1", Title: "Club meeting", Time: "Jan 16, 5:00 PM", Duration: "30m", Type: KindStudy},
	}
	res := BuildPlan("User: math homework due tomorrow at 5pm", existing, nil, testClasses, refWednesday)

	work := taskByTitle(res.NewTasks, "AP Calculus Homework")
	require.NotNil(t, work)
	assert.Equal(t, "Jan 16, 5:30 PM", work.Time, "busy 5:00 PM shifts to the next half hour")
	assertNoOverlaps(t, append(res.NewTasks, existing...))
}

func TestBuildPlanStudySessionsAvoidExistingTasks(t *testing.T) {
	existing := []TaskRecord{
		{ID: "t1", Title: "Essay draft", Time: "Jan 16, 4:00 PM", Duration: "30m", Type: KindStudy},
	}
	res := BuildPlan("User: math test on Jan 17", existing, nil, testClasses, refWednesday)

	review := taskByTitle(res.NewTasks, "Final Review")
	require.NotNil(t, review)
	assert.Equal(t, "Jan 16, 4:30 PM", review.Time)
	assertNoOverlaps(t, append(res.NewTasks, existing...))
}

func TestBuildPlanDefaultDeadline(t *testing.T) {
	res := BuildPlan("User: math test", nil, nil, testClasses, refWednesday)
	testTask := taskByTitle(res.NewTasks, "AP Calculus Test")
	require.NotNil(t, testTask)
	assert.True(t, strings.HasPrefix(testTask.Time, "Jan 18,"), "unresolved dates default to reference+3: %s", testTask.Time)
}

func TestBuildPlanStudySessionShape(t *testing.T) {
	res := BuildPlan("User: math test next friday", nil, nil, testClasses, refWednesday)
	review := taskByTitle(res.NewTasks, "Final Review")
	require.NotNil(t, review)
	assert.Contains(t, review.Description, "Work for 60 minutes on AP Calculus")
	assert.NotEmpty(t, review.Resources)
	assert.NotEmpty(t, review.ID)
	// Plain text only: no markdown bold markers.
	assert.NotContains(t, res.Message, "**")
}

func TestBuildPlanNeverPanics(t *testing.T) {
	inputs := []string{
		"", "User:", "Assistant:", "User: math test on Jan 99",
		strings.Repeat("User: test test test\n", 50),
	}
	for _, in := range inputs {
		res := BuildPlan(in, nil, nil, testClasses, refWednesday)
		assert.NotEmpty(t, res.Message, "input %q", in)
		assert.NotNil(t, res.NewTasks)
	}
}
