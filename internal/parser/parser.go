// Package parser turns one line of free text into a draft task.
//
// Extraction is a fixed pipeline of keyword and regular-expression steps.
// Every step matches against the lower-cased input and strips what it
// consumed from the display title, so the order of the steps is part of the
// observable behavior.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/tgienger/ultralist/internal/models"
)

// DefaultTitle is used when nothing is left of the input after extraction
const DefaultTitle = "New task"

const dateLayout = "2006-01-02"

// Draft is a structured task that has not been persisted yet
type Draft struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	DueDate     string          `json:"due_date,omitempty"` // YYYY-MM-DD, empty when absent
	Priority    models.Priority `json:"priority"`
	Tags        []string        `json:"tags"`
	ProjectName string          `json:"project_name,omitempty"` // empty when absent
}

// phrase is a literal keyword plus the case-insensitive pattern that strips it
type phrase struct {
	text  string
	strip *regexp.Regexp
}

func newPhrase(text string) phrase {
	return phrase{text: text, strip: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(text))}
}

func newPhrases(texts ...string) []phrase {
	phrases := make([]phrase, len(texts))
	for i, t := range texts {
		phrases[i] = newPhrase(t)
	}
	return phrases
}

var (
	highKeywords = newPhrases("urgent", "asap", "critical")
	lowKeywords  = newPhrases("low priority", "later", "someday")

	relativeDates = []struct {
		phrase
		days int
	}{
		{newPhrase("today"), 0},
		{newPhrase("tomorrow"), 1},
		{newPhrase("next week"), 7},
	}

	timePattern    = regexp.MustCompile(`\b(?:at|by)\s+(\d{1,2}):?(\d{2})?\s*(am|pm)?\b`)
	timeStrip      = regexp.MustCompile(`(?i)` + timePattern.String())
	hashtagPattern = regexp.MustCompile(`#(` + word + `+)`)

	// RE2 has no Unicode \b, so the boundaries are spelled out and group 1
	// holds the span to strip.
	projectPattern = regexp.MustCompile(`(?:^|[^` + wordChars + `])` +
		`((?:for|in)` + space + `(` + word + `+(?:` + space + word + `+)?)` + space + `project)` +
		`(?:[^` + wordChars + `]|$)`)
	projectStrip = regexp.MustCompile(`(?i)` + projectPattern.String())
)

// Word and space classes that match non-ASCII letters the way \w and \s
// do in Unicode-aware engines.
const (
	wordChars = `\p{L}\p{M}\p{N}\p{Pc}`
	word      = `[` + wordChars + `]`
	space     = `[\s\p{Z}]+`
)

// step inspects the lower-cased input and updates the draft
type step func(input string, now time.Time, d *Draft)

var pipeline = []step{
	extractPriority,
	extractRelativeDate,
	extractTimeOfDay,
	extractHashtags,
	extractProject,
}

// Parse builds a draft task from input. It never fails: a pattern that does
// not match leaves its field at the default. now is only used for relative
// dates.
func Parse(input string, now time.Time) Draft {
	d := Draft{
		Title:    input,
		Priority: models.PriorityMedium,
		Tags:     []string{},
	}

	lower := strings.ToLower(input)
	for _, s := range pipeline {
		s(lower, now, &d)
	}

	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		d.Title = DefaultTitle
	}
	return d
}

func extractPriority(input string, _ time.Time, d *Draft) {
	switch {
	case containsAny(input, highKeywords):
		d.Priority = models.PriorityHigh
		d.Title = stripAll(d.Title, highKeywords)
	case containsAny(input, lowKeywords):
		d.Priority = models.PriorityLow
		d.Title = stripAll(d.Title, lowKeywords)
	}
}

func extractRelativeDate(input string, now time.Time, d *Draft) {
	for _, rd := range relativeDates {
		if strings.Contains(input, rd.text) {
			d.DueDate = now.AddDate(0, 0, rd.days).Format(dateLayout)
			d.Title = rd.strip.ReplaceAllString(d.Title, "")
			return
		}
	}
}

func extractTimeOfDay(input string, _ time.Time, d *Draft) {
	match := timePattern.FindString(input)
	if match == "" {
		return
	}
	d.Description += "Due time: " + match
	d.Title = stripFirst(timeStrip, d.Title)
}

func extractHashtags(input string, _ time.Time, d *Draft) {
	for _, m := range hashtagPattern.FindAllStringSubmatch(input, -1) {
		d.Tags = append(d.Tags, m[1])
	}
	d.Title = hashtagPattern.ReplaceAllString(d.Title, "")
}

func extractProject(input string, _ time.Time, d *Draft) {
	m := projectPattern.FindStringSubmatch(input)
	if m == nil {
		return
	}
	d.ProjectName = m[2]
	d.Title = stripGroup(projectStrip, d.Title)
}

func containsAny(s string, phrases []phrase) bool {
	for _, p := range phrases {
		if strings.Contains(s, p.text) {
			return true
		}
	}
	return false
}

// stripAll removes every occurrence of each phrase
func stripAll(s string, phrases []phrase) string {
	for _, p := range phrases {
		s = p.strip.ReplaceAllString(s, "")
	}
	return s
}

// stripGroup removes the first submatch of the leftmost match of re
func stripGroup(re *regexp.Regexp, s string) string {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[2]] + s[loc[3]:]
}

// stripFirst removes the leftmost match of re
func stripFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}
