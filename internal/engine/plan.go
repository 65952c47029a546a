package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ----------------------
//   PLAN BUILDER
// ----------------------
//
// BuildPlan is the single entry point of the inference engine. It is pure:
// it reads the conversation tail plus the caller's current records and
// returns new records, never touching shared state between calls.

const (
	testHour        = 8.25         // tests sit at 8:15 AM on the deadline day
	dueHour         = 23 + 59.0/60 // assignment deadline marker, 11:59 PM
	sessionDuration = 1.0
	workDuration    = 0.75
)

// The assistant's own prompts double as state markers: the next turn
// classifies "what are we waiting for" by finding one of these phrases in
// the last assistant message.
const (
	askClassNamePhrase = "what's the full name of this class"
	askIntensityPhrase = "how intense should the prep be"
	askTimePhrase      = "what time works for you"
)

const (
	genericErrorReply = "I'm having trouble processing that. Can you try again?"
	fallbackReply     = "I'm here to help! If you have a specific test or assignment, tell me the subject and date (e.g., 'Math test next Tuesday') and I'll build a study plan for you. Otherwise, feel free to ask me anything!"
)

type convState int

const (
	stateIdle convState = iota
	stateAwaitingClassName
	stateAwaitingIntensity
	stateAwaitingTime
)

type intent struct {
	isAssignment bool
	isTest       bool
	hasTask      bool
}

type planRequest struct {
	match        SubjectMatch
	deadline     time.Time
	isAssignment bool
	sessions     int // 0 = derive from days until deadline
	forcedHour   *float64
}

type planner struct {
	full          string
	lastUser      string
	lastAssistant string
	lowerUser     string
	tasks         []TaskRecord
	activities    []ActivityRecord
	classes       []ClassRecord
	ref           time.Time
}

// BuildPlan derives a conversational reply plus task/class records from the
// joined transcript. Any internal panic is converted into a generic retry
// message; the caller is a live chat UI and must never see an error.
func BuildPlan(conversationText string, tasks []TaskRecord, activities []ActivityRecord, classes []ClassRecord, ref time.Time) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = emptyResult(genericErrorReply)
		}
	}()

	p := &planner{
		full:       conversationText,
		tasks:      tasks,
		activities: activities,
		classes:    classes,
		ref:        ref,
	}
	p.lastUser, p.lastAssistant = conversationTail(conversationText)
	p.lowerUser = strings.ToLower(p.lastUser)

	switch classifyState(p.lastAssistant) {
	case stateAwaitingClassName:
		return p.resumeWithClassName()
	case stateAwaitingIntensity:
		return p.resumeWithIntensity()
	case stateAwaitingTime:
		return p.resumeWithTime()
	default:
		return p.handleIdle()
	}
}

// ----------------------
//   STATE HANDLERS
// ----------------------

func (p *planner) handleIdle() Result {
	in := detectIntent(p.lowerUser)
	match := ResolveSubject(p.lastUser, p.classes)
	if match.Kind == SubjectNone {
		match = ResolveSubject(p.full, p.classes)
	}

	// Naming a standardized exam is a task mention even without "test".
	if !in.hasTask && match.Kind != SubjectGlobalExam {
		return emptyResult(p.smallTalk())
	}
	if match.Kind == SubjectNone {
		return emptyResult(fallbackReply)
	}
	if match.Kind == SubjectUnknownClass {
		return emptyResult(askClassNameReply(match.Subject))
	}

	return p.schedule(planRequest{
		match:        match,
		deadline:     p.resolveDeadline(false),
		isAssignment: in.isAssignment,
	})
}

// resumeWithClassName runs after the engine asked for a class's full name.
// A reply that is itself a new task request falls through to normal handling.
func (p *planner) resumeWithClassName() Result {
	if detectIntent(p.lowerUser).hasTask {
		return p.handleIdle()
	}

	pendingSubject := p.pendingClassSubject()
	if pendingSubject.Kind != SubjectUnknownClass {
		return emptyResult(fallbackReply)
	}
	name := CorrectClassName(p.lastUser)
	if name == "" {
		return emptyResult(askClassNameReply(pendingSubject.Subject))
	}

	cls := ClassRecord{ID: uuid.NewString(), Name: name, Subject: pendingSubject.Subject}
	match := SubjectMatch{Kind: SubjectClass, Subject: pendingSubject.Subject, DisplayName: cls.Name, Class: &cls}

	res := p.schedule(planRequest{
		match:        match,
		deadline:     p.resolveDeadline(true),
		isAssignment: detectIntent(strings.ToLower(p.full)).isAssignment,
	})
	res.NewClasses = append(res.NewClasses, cls)
	res.Message = fmt.Sprintf("Added %s to your classes. %s", name, res.Message)
	return res
}

// resumeWithIntensity runs after the engine asked how hard to prep for a
// far-out test. Normal=3, Moderate=5, Hardcore=7 sessions before clamping.
func (p *planner) resumeWithIntensity() Result {
	sessions := 3
	switch {
	case strings.Contains(p.lowerUser, "hard"):
		sessions = 7
	case strings.Contains(p.lowerUser, "mod"):
		sessions = 5
	}

	match := p.recoverSubject()
	if match.Kind == SubjectNone {
		return emptyResult(fallbackReply)
	}
	if match.Kind == SubjectUnknownClass {
		return emptyResult(askClassNameReply(match.Subject))
	}
	return p.schedule(planRequest{
		match:    match,
		deadline: p.resolveDeadline(true),
		sessions: sessions,
	})
}

// resumeWithTime runs after no slot could be found and the user was asked
// for an explicit time.
func (p *planner) resumeWithTime() Result {
	hour, ok := parseExplicitHour(p.lowerUser)
	if !ok {
		return emptyResult("I didn't catch a time there. What time works for you? (e.g., 5:30 PM)")
	}

	match := p.recoverSubject()
	if match.Kind == SubjectNone {
		return emptyResult(fallbackReply)
	}
	if match.Kind == SubjectUnknownClass {
		return emptyResult(askClassNameReply(match.Subject))
	}
	return p.schedule(planRequest{
		match:        match,
		deadline:     p.resolveDeadline(true),
		isAssignment: detectIntent(strings.ToLower(p.full)).isAssignment,
		forcedHour:   &hour,
	})
}

// ----------------------
//   SCHEDULING
// ----------------------

func (p *planner) schedule(req planRequest) Result {
	day0 := startOfDay(p.ref)
	deadlineDay := startOfDay(req.deadline)
	if deadlineDay.Before(day0) {
		return emptyResult(fmt.Sprintf(
			"It looks like %s has already passed, and I can't schedule tasks in the past. Give me an upcoming date and I'll build the plan!",
			FormatDisplayDate(deadlineDay)))
	}

	if !req.isAssignment {
		if dup := p.findDuplicateTest(req.match); dup != nil && !p.wantsReschedule() {
			return emptyResult(fmt.Sprintf(
				"It looks like \"%s\" is already on your schedule. Say 'reschedule' with the new date and I'll plan for it; just remove the old test from your list afterwards.",
				dup.Title))
		}
		return p.scheduleTest(req, day0, deadlineDay)
	}
	return p.scheduleAssignment(req, day0, deadlineDay)
}

func (p *planner) scheduleTest(req planRequest, day0, deadlineDay time.Time) Result {
	name := req.match.DisplayName
	daysUntil := int(deadlineDay.Sub(day0).Hours() / 24)

	sessions := req.sessions
	if sessions == 0 {
		switch {
		case daysUntil > 14:
			return emptyResult(fmt.Sprintf(
				"Your %s test on %s (%s) is still a while out, which gives us room to plan. How intense should the prep be? Normal (2-3 sessions), Moderate (4-5), or Hardcore (6-8)?",
				name, deadlineDay.Weekday(), FormatDisplayDate(deadlineDay)))
		case daysUntil >= 7:
			sessions = 4
		default:
			sessions = 2
		}
	}
	if sessions > daysUntil {
		sessions = daysUntil // one session per day, all before the deadline
	}

	planned := append([]TaskRecord{}, p.tasks...)
	result := emptyResult("")

	testTask := TaskRecord{
		ID:          uuid.NewString(),
		Title:       name + " Test",
		Time:        FormatTaskTime(deadlineDay, testHour),
		Duration:    "1h",
		Type:        KindDeadline,
		Priority:    PriorityHigh,
		Description: "Official assessment date.",
		Resources:   deadlineResources(),
	}
	result.NewTasks = append(result.NewTasks, testTask)
	planned = append(planned, testTask)

	scheduled := 0
	for i := 1; i <= sessions; i++ {
		day := deadlineDay.AddDate(0, 0, -i)
		if day.Before(day0) {
			break
		}
		start, ok := FindSlot(day, sessionDuration, planned, p.activities, req.forcedHour, p.ref)
		if !ok {
			if i == 1 {
				// The final review is non-negotiable; ask instead of dropping it.
				return emptyResult(noSlotReply(name))
			}
			continue
		}

		label, prio := "Prep Session", PriorityMedium
		if i == 1 {
			label, prio = "Final Review", PriorityHigh
		}
		task := TaskRecord{
			ID:          uuid.NewString(),
			Title:       fmt.Sprintf("%s - %s", name, label),
			Time:        FormatTaskTime(day, start),
			Duration:    "1h",
			Type:        KindStudy,
			Priority:    prio,
			Description: fmt.Sprintf("Work for 60 minutes on %s at %s.", name, FormatClock(start)),
			Resources:   p.sessionResources(req.match),
		}
		result.NewTasks = append(result.NewTasks, task)
		planned = append(planned, task)
		scheduled++
	}

	weekday := deadlineDay.Weekday().String()
	dateStr := FormatDisplayDate(deadlineDay)
	switch scheduled {
	case 0:
		result.Message = fmt.Sprintf(
			"Got it! Your %s test is on %s (%s). It's too close for prep sessions, so go in fresh and confident!",
			name, weekday, dateStr)
	case 1:
		result.Message = fmt.Sprintf(
			"Got it! You have a %s test coming up on %s (%s). I've scheduled your final review for the day before.",
			name, weekday, dateStr)
	default:
		result.Message = fmt.Sprintf(
			"Got it! You have a %s test coming up on %s (%s). I've lined up %d study sessions, with the final review exactly one day before the test.",
			name, weekday, dateStr, scheduled)
	}
	return result
}

func (p *planner) scheduleAssignment(req planRequest, day0, deadlineDay time.Time) Result {
	name := req.match.DisplayName
	daysUntil := int(deadlineDay.Sub(day0).Hours() / 24)

	preferred := req.forcedHour
	if preferred == nil {
		if h, ok := parseExplicitHour(p.lowerUser); ok {
			preferred = &h
		}
	}

	planned := append([]TaskRecord{}, p.tasks...)
	var workDay time.Time
	var start float64
	found := false

	// An explicit time points at the due day itself; otherwise take the
	// earliest open slot before the deadline.
	if preferred != nil {
		if s, ok := FindSlot(deadlineDay, workDuration, planned, p.activities, preferred, p.ref); ok {
			workDay, start, found = deadlineDay, s, true
		}
	}
	if !found {
		for dOff := 0; dOff <= daysUntil; dOff++ {
			if dOff == daysUntil && dOff > 0 {
				continue // keep the due day clear unless it's today
			}
			day := day0.AddDate(0, 0, dOff)
			if s, ok := FindSlot(day, workDuration, planned, p.activities, preferred, p.ref); ok {
				workDay, start, found = day, s, true
				break
			}
		}
	}
	if !found {
		return emptyResult(noSlotReply(name))
	}

	result := emptyResult("")
	work := TaskRecord{
		ID:          uuid.NewString(),
		Title:       name + " Homework",
		Time:        FormatTaskTime(workDay, start),
		Duration:    "45m",
		Type:        KindStudy,
		Priority:    PriorityMedium,
		Description: fmt.Sprintf("Work for 45 minutes on the %s assignment.", name),
		Resources:   []Resource{{Label: "Study Guide", URL: "https://quizlet.com"}},
	}
	due := TaskRecord{
		ID:          uuid.NewString(),
		Title:       name + " DUE",
		Time:        FormatTaskTime(deadlineDay, dueHour),
		Duration:    "---",
		Type:        KindDeadline,
		Priority:    PriorityHigh,
		Description: fmt.Sprintf("Official deadline for %s.", name),
		Resources:   []Resource{{Label: "Submission Portal", URL: "https://canvas.instructure.com"}},
	}
	result.NewTasks = append(result.NewTasks, work, due)
	result.Message = fmt.Sprintf(
		"I've set up two markers for your %s assignment: a work session on %s (%s) at %s, and the final deadline on %s (%s).",
		name,
		workDay.Weekday(), FormatDisplayDate(workDay), FormatClock(start),
		deadlineDay.Weekday(), FormatDisplayDate(deadlineDay))
	return result
}

func (p *planner) sessionResources(match SubjectMatch) []Resource {
	res := studyResources(match.DisplayName)
	if match.Kind == SubjectGlobalExam {
		res = append(res, StrategyForSubject(match.Subject).Resources...)
	}
	return res
}

// ----------------------
//   GUARDS & RECOVERY
// ----------------------

func (p *planner) findDuplicateTest(match SubjectMatch) *TaskRecord {
	subject := strings.ToLower(match.Subject)
	display := strings.ToLower(match.DisplayName)
	for i := range p.tasks {
		t := &p.tasks[i]
		title := strings.ToLower(t.Title)
		if !strings.Contains(title, "test") && !strings.Contains(title, "exam") {
			continue
		}
		if strings.Contains(title, subject) || strings.Contains(title, display) {
			return t
		}
	}
	return nil
}

func (p *planner) wantsReschedule() bool {
	return strings.Contains(p.lowerUser, "reschedul") || strings.Contains(p.lowerUser, "move")
}

// recoverSubject prefers the latest user line, then the whole transcript.
func (p *planner) recoverSubject() SubjectMatch {
	if m := ResolveSubject(p.lastUser, p.classes); m.Kind != SubjectNone {
		return m
	}
	return ResolveSubject(p.full, p.classes)
}

var askSubjectRe = regexp.MustCompile(`coming up for ([A-Za-z ]+?),`)

// pendingClassSubject recovers which subject the class-name question was
// about. The just-typed reply is the class NAME, not the subject, so it must
// not influence resolution: only user turns before the reply count, with the
// clarification line itself (which names the subject) as the fallback.
func (p *planner) pendingClassSubject() SubjectMatch {
	if m := ResolveSubject(p.userTextBeforeLast(), p.classes); m.Kind != SubjectNone {
		return m
	}
	if m := askSubjectRe.FindStringSubmatch(p.lastAssistant); m != nil {
		subject := strings.TrimSpace(m[1])
		if cls := matchClass(subject, p.classes); cls != nil {
			return SubjectMatch{Kind: SubjectClass, Subject: subject, DisplayName: cls.Name, Class: cls}
		}
		return SubjectMatch{Kind: SubjectUnknownClass, Subject: subject, DisplayName: subject}
	}
	return SubjectMatch{Kind: SubjectNone}
}

// userTextBeforeLast joins every user turn except the most recent one.
func (p *planner) userTextBeforeLast() string {
	var users []string
	for _, line := range strings.Split(p.full, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "User:"); ok {
			users = append(users, strings.TrimSpace(rest))
		}
	}
	if len(users) > 0 {
		users = users[:len(users)-1]
	}
	return strings.Join(users, "\n")
}

// resolveDeadline falls back to reference+3 days when no date expression is
// found, a deliberate leniency over failing the request. Resume flows also
// scan the whole transcript to recover the original request's date.
func (p *planner) resolveDeadline(scanFull bool) time.Time {
	if d, ok := ResolveDate(p.lastUser, p.ref); ok {
		return d
	}
	if scanFull {
		if d, ok := ResolveDate(p.full, p.ref); ok {
			return d
		}
	}
	return startOfDay(p.ref).AddDate(0, 0, 3)
}

// ----------------------
//   SMALL TALK
// ----------------------

var smallTalkGreetings = []string{"hi", "hello", "hey", "sup", "yo", "good morning", "good afternoon", "good evening"}
var smallTalkFeelings = []string{"how are you", "how's it going", "how are things", "what's up"}

func (p *planner) smallTalk() string {
	timeGreeting := "Hello"
	switch {
	case p.ref.Hour() < 12:
		timeGreeting = "Good morning"
	case p.ref.Hour() < 17:
		timeGreeting = "Good afternoon"
	default:
		timeGreeting = "Good evening"
	}

	askedFeelings := false
	for _, f := range smallTalkFeelings {
		if strings.Contains(p.lowerUser, f) {
			askedFeelings = true
			break
		}
	}
	greeted := askedFeelings
	for _, g := range smallTalkGreetings {
		if strings.HasPrefix(p.lowerUser, g) {
			greeted = true
			break
		}
	}

	switch {
	case askedFeelings:
		return timeGreeting + "! I'm doing great, thanks for asking. I'm ready to help you organize your classes and study sessions. Do you have any tests or assignments coming up?"
	case greeted:
		return timeGreeting + "! I'm Calendly, your AI study assistant. How can I help you with your schedule today? You can tell me about upcoming tests or assignments!"
	case strings.Contains(p.lowerUser, "thank"):
		return "You're very welcome! I'm here to help you stay on top of your studies. Let me know if you need anything else!"
	case strings.Contains(p.lowerUser, "who are you") || strings.Contains(p.lowerUser, "what are you"):
		return "I'm Calendly, your personal AI student assistant. I help you track your classes, manage your assignments, and create study schedules for your exams. Want to try scheduling something?"
	default:
		return fallbackReply
	}
}

// ----------------------
//   PARSING HELPERS
// ----------------------

var explicitHourRe = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)

func parseExplicitHour(lower string) (float64, bool) {
	m := explicitHourRe.FindStringSubmatch(lower)
	if m == nil {
		return 0, false
	}
	h := atoiDefault(m[1], 0)
	if h < 1 || h > 12 {
		return 0, false
	}
	min := atoiDefault(m[2], 0)
	if m[3] == "pm" && h < 12 {
		h += 12
	}
	if m[3] == "am" && h == 12 {
		h = 0
	}
	return float64(h) + float64(min)/60, true
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

var taskKeywordPrefixes = []string{"test", "exam", "quiz", "review", "study", "homework", "assignment"}

func detectIntent(lower string) intent {
	var in intent
	for _, w := range tokenize(lower) {
		if w == "hw" {
			in.isAssignment = true
			continue
		}
		for _, kw := range taskKeywordPrefixes {
			if strings.HasPrefix(w, kw) {
				switch kw {
				case "homework", "assignment":
					in.isAssignment = true
				case "test", "exam", "quiz":
					in.isTest = true
				}
				in.hasTask = true
			}
		}
	}
	in.hasTask = in.hasTask || in.isAssignment || in.isTest
	return in
}

func conversationTail(text string) (lastUser, lastAssistant string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "User:"); ok {
			lastUser = strings.TrimSpace(rest)
		} else if rest, ok := strings.CutPrefix(line, "Assistant:"); ok {
			lastAssistant = strings.TrimSpace(rest)
		} else if rest, ok := strings.CutPrefix(line, "Calendly:"); ok {
			lastAssistant = strings.TrimSpace(rest)
		}
	}
	// A bare message without transcript prefixes is the user line itself.
	if lastUser == "" && lastAssistant == "" {
		lastUser = strings.TrimSpace(text)
	}
	return
}

func classifyState(lastAssistant string) convState {
	lower := strings.ToLower(lastAssistant)
	switch {
	case strings.Contains(lower, askClassNamePhrase):
		return stateAwaitingClassName
	case strings.Contains(lower, askIntensityPhrase):
		return stateAwaitingIntensity
	case strings.Contains(lower, askTimePhrase):
		return stateAwaitingTime
	default:
		return stateIdle
	}
}

func askClassNameReply(subject string) string {
	return fmt.Sprintf(
		"I see you have something coming up for %s, but I don't have a %s class in your schedule yet. What's the full name of this class? (e.g., AP Calculus, Algebra 2)",
		subject, subject)
}

func noSlotReply(name string) string {
	return fmt.Sprintf(
		"I checked your schedule and couldn't find an open slot for %s around your routine. What time works for you?", name)
}

func emptyResult(message string) Result {
	return Result{
		Message:       message,
		NewTasks:      []TaskRecord{},
		NewClasses:    []ClassRecord{},
		NewActivities: []ActivityRecord{},
	}
}
