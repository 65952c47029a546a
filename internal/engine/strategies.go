package engine

import "strings"

// ----------------------
//   STUDY RESOURCES
// ----------------------

type Strategy struct {
	Advice    string
	Resources []Resource
}

var testStrategies = map[string]Strategy{
	"sat": {
		Advice: "Digital adaptive strategy: accuracy in Module 1 unlocks a higher score band in Module 2. Use the built-in Desmos calculator for complex functions and review every miss to find reasoning patterns.",
		Resources: []Resource{
			{Label: "Bluebook (College Board)", URL: "https://bluebook.collegeboard.org/"},
			{Label: "Khan Academy SAT", URL: "https://www.khanacademy.org/test-prep/sat"},
		},
	},
	"act": {
		Advice: "Fewer questions, more time: take advantage of the 4-choice math options. Favor concise answers in English, and never leave a blank since there is no guessing penalty.",
		Resources: []Resource{
			{Label: "ACT Academy", URL: "https://www.act.org/content/act/en/products-and-services/the-act/test-preparation/act-academy.html"},
			{Label: "Official Prep Guide", URL: "https://www.act.org/content/act/en/products-and-services/the-act/test-preparation.html"},
		},
	},
	"general": {
		Advice: "Spaced repetition beats cramming: spread sessions 1-2 days apart, use active recall instead of re-reading, and keep an error log of every missed problem.",
		Resources: []Resource{
			{Label: "Knowt", URL: "https://knowt.com"},
			{Label: "Quizlet", URL: "https://quizlet.com"},
		},
	},
}

// StrategyForSubject returns the prep strategy block for a subject or exam.
func StrategyForSubject(subject string) Strategy {
	s := strings.ToLower(subject)
	if strings.Contains(s, "sat") {
		return testStrategies["sat"]
	}
	if strings.Contains(s, "act") {
		return testStrategies["act"]
	}
	return testStrategies["general"]
}

// studyResources picks the link set attached to a generated study session.
// Every session carries the study coach plus one subject-specific aid.
func studyResources(displayName string) []Resource {
	out := []Resource{
		{Label: "Study Coach (AI)", URL: "https://www.playlab.ai/project/cmi7fu59u07kwl10uyroeqf8n"},
	}
	s := strings.ToLower(displayName)
	switch {
	case strings.Contains(s, "math") || strings.Contains(s, "calc") ||
		strings.Contains(s, "algebra") || strings.Contains(s, "geometry") ||
		strings.Contains(s, "statistics"):
		out = append(out, Resource{Label: "Khan Academy Math", URL: "https://www.khanacademy.org/math"})
	case strings.Contains(s, "bio") || strings.Contains(s, "chem") ||
		strings.Contains(s, "physics") || strings.Contains(s, "science"):
		out = append(out, Resource{Label: "Khan Academy Science", URL: "https://www.khanacademy.org/science"})
	case strings.Contains(s, "history"):
		out = append(out, Resource{Label: "Heimler's History", URL: "https://www.youtube.com/@HeimlersHistory"})
	case strings.Contains(s, "english"):
		out = append(out, Resource{Label: "SparkNotes", URL: "https://www.sparknotes.com"})
	default:
		out = append(out, Resource{Label: "Knowt", URL: "https://knowt.com"})
	}
	return out
}

// deadlineResources is the fixed link set on the test-day task itself.
func deadlineResources() []Resource {
	return []Resource{{Label: "Final Exam Prep", URL: "https://www.khanacademy.org"}}
}
