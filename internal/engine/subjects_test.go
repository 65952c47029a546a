package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClasses = []ClassRecord{
	{ID: "c1", Name: "AP Calculus", Subject: "Math"},
	{ID: "c2", Name: "World History", Subject: "History"},
}

func TestResolveSubjectClassMatch(t *testing.T) {
	got := ResolveSubject("I have a math test coming up", testClasses)
	require.Equal(t, SubjectClass, got.Kind)
	assert.Equal(t, "Math", got.Subject)
	assert.Equal(t, "AP Calculus", got.DisplayName)

	// Alias hits the same class through its name.
	got = ResolveSubject("calc homework tonight", testClasses)
	require.Equal(t, SubjectClass, got.Kind)
	assert.Equal(t, "AP Calculus", got.DisplayName)
}

func TestResolveSubjectUnknownClass(t *testing.T) {
	got := ResolveSubject("big physics exam on friday", testClasses)
	require.Equal(t, SubjectUnknownClass, got.Kind)
	assert.Equal(t, "Physics", got.Subject)
	assert.Nil(t, got.Class)
}

func TestResolveSubjectGlobalExam(t *testing.T) {
	// Standardized exams resolve without any class on file.
	for _, text := range []string{"gaokao in 3 days", "SAT next month", "taking the MCAT"} {
		got := ResolveSubject(text, nil)
		assert.Equal(t, SubjectGlobalExam, got.Kind, text)
		assert.NotEmpty(t, got.DisplayName, text)
	}

	got := ResolveSubject("gaokao in 3 days", nil)
	assert.Equal(t, "Gaokao", got.DisplayName)
}

func TestResolveSubjectAmbiguousExamWords(t *testing.T) {
	// Everyday uses of "sat" and "act" are not exam mentions.
	for _, text := range []string{"balancing act tomorrow", "we sat around all afternoon"} {
		got := ResolveSubject(text, nil)
		assert.Equal(t, SubjectNone, got.Kind, text)
	}

	// Caps spelling or prep language confirms the exam reading.
	for _, tt := range []struct{ text, want string }{
		{"ACT in two weeks", "ACT"},
		{"my SAT is coming up", "SAT"},
		{"act prep tomorrow", "ACT"},
		{"sat practice next week", "SAT"},
	} {
		got := ResolveSubject(tt.text, nil)
		require.Equal(t, SubjectGlobalExam, got.Kind, tt.text)
		assert.Equal(t, tt.want, got.DisplayName, tt.text)
	}
}

func TestResolveSubjectNone(t *testing.T) {
	got := ResolveSubject("hello, how are you?", testClasses)
	assert.Equal(t, SubjectNone, got.Kind)
}

func TestResolveSubjectDeterministic(t *testing.T) {
	text := "sat and act and math all at once"
	first := ResolveSubject(text, testClasses)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ResolveSubject(text, testClasses))
	}
}

func TestCorrectClassName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ap calclus", "AP Calculus"},
		{"histroy 101", "History 101"},
		{"algebra 2", "Algebra 2"},
		{"  spanish  ", "Spanish"},
		{"ib chemisty", "IB Chemistry"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CorrectClassName(tt.in))
	}
}
