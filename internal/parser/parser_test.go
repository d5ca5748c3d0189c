package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tgienger/ultralist/internal/models"
)

var now = time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)

func TestParse_FullSentence(t *testing.T) {
	d := Parse("Submit report urgent tomorrow #work for finance project", now)

	assert.Equal(t, "Submit report", d.Title)
	assert.Equal(t, models.PriorityHigh, d.Priority)
	assert.Equal(t, "2026-10-20", d.DueDate)
	assert.Equal(t, []string{"work"}, d.Tags)
	assert.Equal(t, "finance", d.ProjectName)
	assert.Equal(t, "", d.Description)
}

func TestParse_Blank(t *testing.T) {
	d := Parse("   ", now)

	assert.Equal(t, DefaultTitle, d.Title)
	assert.Equal(t, models.PriorityMedium, d.Priority)
	assert.Empty(t, d.DueDate)
	assert.NotNil(t, d.Tags)
	assert.Empty(t, d.Tags)
	assert.Empty(t, d.ProjectName)
}

func TestParse_TimeOfDay(t *testing.T) {
	d := Parse("Call mom at 5pm", now)

	assert.Contains(t, d.Description, "Due time: at 5pm")
	assert.Equal(t, "Call mom", d.Title)
	assert.Empty(t, d.DueDate)
	assert.Equal(t, models.PriorityMedium, d.Priority)
}

func TestParse_LowPriority(t *testing.T) {
	d := Parse("buy milk someday", now)

	assert.Equal(t, models.PriorityLow, d.Priority)
	assert.Equal(t, "buy milk", d.Title)
}

func TestParse_HighWinsOverLow(t *testing.T) {
	d := Parse("fix login later asap", now)

	assert.Equal(t, models.PriorityHigh, d.Priority)
	assert.Equal(t, "fix login later", d.Title, "only the high-priority keywords are stripped")
}

func TestParse_RelativeDates(t *testing.T) {
	tests := []struct {
		input string
		due   string
		title string
	}{
		{"gym today", "2026-10-19", "gym"},
		{"dentist tomorrow", "2026-10-20", "dentist"},
		{"review next week", "2026-10-26", "review"},
		{"today or tomorrow", "2026-10-19", "or tomorrow"},
		{"nothing here", "", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d := Parse(tt.input, now)
			assert.Equal(t, tt.due, d.DueDate)
			assert.Equal(t, tt.title, d.Title)
		})
	}
}

func TestParse_TimeWithMinutes(t *testing.T) {
	d := Parse("Submit form by 3:30", now)

	assert.Equal(t, "Due time: by 3:30", d.Description)
	assert.Equal(t, "Submit form", d.Title)
}

func TestParse_OnlyFirstTimeUsed(t *testing.T) {
	d := Parse("meet at 9am then call at 4pm", now)

	assert.Equal(t, "Due time: at 9am", d.Description)
	assert.Equal(t, "meet  then call at 4pm", d.Title)
}

func TestParse_HashtagsInOrderWithDuplicates(t *testing.T) {
	d := Parse("#Home clean #kitchen and #home", now)

	assert.Equal(t, []string{"home", "kitchen", "home"}, d.Tags)
	assert.Equal(t, "clean  and", d.Title)
}

func TestParse_TwoWordProject(t *testing.T) {
	d := Parse("Draft slides in Big Launch project", now)

	assert.Equal(t, "big launch", d.ProjectName)
	assert.Equal(t, "Draft slides", d.Title)
}

func TestParse_NonASCIIHashtags(t *testing.T) {
	d := Parse("Buy bread #Café #日本", now)

	assert.Equal(t, []string{"café", "日本"}, d.Tags)
	assert.Equal(t, "Buy bread", d.Title)
}

func TestParse_NonASCIIProject(t *testing.T) {
	tests := []struct {
		input   string
		project string
		title   string
	}{
		{"Réserver table for Café project", "café", "Réserver table"},
		{"Plan trip in 東京 project", "東京", "Plan trip"},
		{"Book flights in São Paulo project now", "são paulo", "Book flights  now"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d := Parse(tt.input, now)
			assert.Equal(t, tt.project, d.ProjectName)
			assert.Equal(t, tt.title, d.Title)
		})
	}
}

func TestParse_ProjectNeedsWordBoundary(t *testing.T) {
	d := Parse("Check éfor café project", now)

	assert.Empty(t, d.ProjectName)
	assert.Equal(t, "Check éfor café project", d.Title)
}

func TestParse_CaseInsensitiveStripping(t *testing.T) {
	d := Parse("URGENT Pay rent Tomorrow", now)

	assert.Equal(t, models.PriorityHigh, d.Priority)
	assert.Equal(t, "2026-10-20", d.DueDate)
	assert.Equal(t, "Pay rent", d.Title)
}

func TestParse_OnlyKeywords(t *testing.T) {
	d := Parse("urgent today #x", now)

	assert.Equal(t, DefaultTitle, d.Title)
	assert.Equal(t, []string{"x"}, d.Tags)
}

func TestParse_Deterministic(t *testing.T) {
	input := "Plan offsite asap next week at 10am #team for ops project"
	assert.Equal(t, Parse(input, now), Parse(input, now))
}
