package engine

import (
	"strings"
)

// ----------------------
//   SUBJECT RESOLUTION
// ----------------------

// SubjectKind is the branch the caller must take after resolution.
type SubjectKind int

const (
	SubjectNone         SubjectKind = iota
	SubjectClass                    // vocabulary hit matched to one of the user's classes
	SubjectUnknownClass             // vocabulary hit with no class: ask for the full class name
	SubjectGlobalExam               // standardized exam, proceeds without a class
)

type SubjectMatch struct {
	Kind        SubjectKind
	Subject     string // canonical vocabulary entry, e.g. "Math"
	DisplayName string // class name or exam name used in task titles
	Class       *ClassRecord
}

type subjectEntry struct {
	canonical string
	aliases   []string
}

// Closed vocabulary of common school subjects. Aliases are matched as whole
// words against the text; canonical names double as the coarse category when
// the engine creates a class.
var subjectVocabulary = []subjectEntry{
	{"Calculus", []string{"calculus", "calc"}},
	{"Algebra", []string{"algebra"}},
	{"Geometry", []string{"geometry"}},
	{"Statistics", []string{"statistics", "stats"}},
	{"Math", []string{"math", "maths"}},
	{"Biology", []string{"biology", "bio"}},
	{"Chemistry", []string{"chemistry", "chem"}},
	{"Physics", []string{"physics"}},
	{"Science", []string{"science"}},
	{"English", []string{"english"}},
	{"History", []string{"history"}},
	{"Spanish", []string{"spanish"}},
	{"Computer Science", []string{"programming", "coding"}},
}

// Multi-word subjects can't ride the tokenizer.
var subjectPhrases = map[string]string{
	"computer science": "Computer Science",
	"comp sci":         "Computer Science",
}

// Externally administered exams. These are never expected in the class list,
// so they bypass the missing-class stop condition. Ordered slice keeps
// resolution deterministic when a message names more than one.
var globalExams = []subjectEntry{
	{"SAT", []string{"sat"}},
	{"ACT", []string{"act"}},
	{"Gaokao", []string{"gaokao"}},
	{"IELTS", []string{"ielts"}},
	{"TOEFL", []string{"toefl"}},
	{"GRE", []string{"gre"}},
	{"GMAT", []string{"gmat"}},
	{"LSAT", []string{"lsat"}},
	{"MCAT", []string{"mcat"}},
}

// Corrections applied when echoing a class name the user typed back.
var subjectNameTypos = map[string]string{
	"calclus":   "Calculus",
	"calcus":    "Calculus",
	"calculas":  "Calculus",
	"histroy":   "History",
	"histry":    "History",
	"bioligy":   "Biology",
	"biolgy":    "Biology",
	"chemestry": "Chemistry",
	"chemisty":  "Chemistry",
	"phisics":   "Physics",
	"physcis":   "Physics",
	"englsh":    "English",
	"algbra":    "Algebra",
	"geomtry":   "Geometry",
}

// ResolveSubject matches free text against the subject vocabulary and the
// user's class list. Deterministic: first hit in vocabulary order wins.
func ResolveSubject(text string, classes []ClassRecord) SubjectMatch {
	lower := strings.ToLower(text)
	words := tokenize(lower)
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}

	for _, exam := range globalExams {
		for _, alias := range exam.aliases {
			if !wordSet[alias] {
				continue
			}
			if ambiguousExamAliases[alias] && !examMentionConfirmed(alias, text, words) {
				continue
			}
			return SubjectMatch{Kind: SubjectGlobalExam, Subject: exam.canonical, DisplayName: exam.canonical}
		}
	}

	subject := ""
	for phrase, canonical := range subjectPhrases {
		if strings.Contains(lower, phrase) {
			subject = canonical
			break
		}
	}
	if subject == "" {
	vocab:
		for _, entry := range subjectVocabulary {
			for _, alias := range entry.aliases {
				if wordSet[alias] {
					subject = entry.canonical
					break vocab
				}
			}
		}
	}
	if subject == "" {
		return SubjectMatch{Kind: SubjectNone}
	}

	if cls := matchClass(subject, classes); cls != nil {
		return SubjectMatch{Kind: SubjectClass, Subject: subject, DisplayName: cls.Name, Class: cls}
	}
	return SubjectMatch{Kind: SubjectUnknownClass, Subject: subject, DisplayName: subject}
}

// "sat" and "act" are everyday English words; as lowercase tokens they only
// count as exams alongside prep language. Written in caps they always count.
var ambiguousExamAliases = map[string]bool{"sat": true, "act": true}

var examCueWords = []string{"test", "exam", "quiz", "prep", "study", "review", "practice", "score"}

func examMentionConfirmed(alias, original string, lowerWords []string) bool {
	upper := strings.ToUpper(alias)
	for _, w := range tokenize(original) {
		if w == upper {
			return true
		}
	}
	for _, w := range lowerWords {
		for _, cue := range examCueWords {
			if strings.HasPrefix(w, cue) {
				return true
			}
		}
	}
	return false
}

// matchClass finds a class whose name or category contains the subject,
// case-insensitive.
func matchClass(subject string, classes []ClassRecord) *ClassRecord {
	needle := strings.ToLower(subject)
	for i := range classes {
		c := &classes[i]
		if strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Subject), needle) {
			return c
		}
	}
	return nil
}

// CorrectClassName tidies a user-supplied class name: fixes known subject
// typos and title-cases the rest ("ap calclus" -> "AP Calculus").
func CorrectClassName(raw string) string {
	words := strings.Fields(strings.TrimSpace(raw))
	for i, w := range words {
		lower := strings.ToLower(strings.Trim(w, ".,!?"))
		if fixed, ok := subjectNameTypos[lower]; ok {
			words[i] = fixed
			continue
		}
		if lower == "ap" || lower == "ib" {
			words[i] = strings.ToUpper(lower)
			continue
		}
		words[i] = titleWord(lower)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
