package story

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Limits bounds story length in words.
type Limits struct {
	MinWords int
	MaxWords int
}

// DefaultLimits apply when the service is built without explicit limits.
var DefaultLimits = Limits{MinWords: 50, MaxWords: 5000}

const defaultAuthor = "Anonymous writer"

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateInput captures the data required to create a story.
type CreateInput struct {
	AuthorID         string `validate:"required"`
	AuthorName       string `validate:"max=80"`
	Title            string `validate:"required,max=120"`
	Body             string `validate:"required"`
	PromptID         string `validate:"max=64"`
	BonusChallengeID string `validate:"max=64"`
	Mode             Mode   `validate:"omitempty,oneof=daily free competition"`
	CompetitionID    string `validate:"required_if=Mode competition,max=64"`
	Status           Status `validate:"omitempty,oneof=draft completed"`
}

func (i *CreateInput) normalize() {
	i.AuthorName = strings.TrimSpace(i.AuthorName)
	i.Title = strings.TrimSpace(i.Title)
	i.Body = strings.TrimSpace(i.Body)
	i.PromptID = strings.TrimSpace(i.PromptID)
	i.BonusChallengeID = strings.TrimSpace(i.BonusChallengeID)
	i.CompetitionID = strings.TrimSpace(i.CompetitionID)
	if i.Mode == "" {
		i.Mode = ModeDaily
	}
	if i.Status == "" {
		i.Status = StatusDraft
	}
}

// Validate checks field constraints and the word bounds for the requested status.
func (i CreateInput) Validate(limits Limits) error {
	var problems []string
	if err := validate.Struct(i); err != nil {
		problems = append(problems, describe(err)...)
	}
	if i.CompetitionID != "" && i.Mode != ModeCompetition {
		problems = append(problems, "competition_id is only allowed for competition stories")
	}
	if i.Body != "" {
		problems = append(problems, checkWords(i.Body, i.Status, limits)...)
	}
	return joinProblems(problems)
}

// UpdateInput carries author edits; nil fields are left unchanged.
type UpdateInput struct {
	Title            *string `validate:"omitempty,max=120"`
	Body             *string
	PromptID         *string `validate:"omitempty,max=64"`
	BonusChallengeID *string `validate:"omitempty,max=64"`
	Status           *Status `validate:"omitempty,oneof=draft completed"`
}

func (i *UpdateInput) normalize() {
	for _, field := range []*string{i.Title, i.Body, i.PromptID, i.BonusChallengeID} {
		if field != nil {
			*field = strings.TrimSpace(*field)
		}
	}
}

// Empty reports whether the input changes nothing.
func (i UpdateInput) Empty() bool {
	return i.Title == nil && i.Body == nil && i.PromptID == nil && i.BonusChallengeID == nil && i.Status == nil
}

// Validate checks field constraints. Title and body may not be cleared.
func (i UpdateInput) Validate() error {
	var problems []string
	if i.Title != nil && *i.Title == "" {
		problems = append(problems, "title must not be empty")
	}
	if i.Body != nil && *i.Body == "" {
		problems = append(problems, "body must not be empty")
	}
	if err := validate.Struct(i); err != nil {
		problems = append(problems, describe(err)...)
	}
	return joinProblems(problems)
}

// CommentInput captures a new comment.
type CommentInput struct {
	StoryID    string `validate:"required"`
	AuthorID   string `validate:"required"`
	AuthorName string `validate:"max=80"`
	Body       string `validate:"required,max=1000"`
}

func (i *CommentInput) normalize() {
	i.AuthorName = strings.TrimSpace(i.AuthorName)
	i.Body = strings.TrimSpace(i.Body)
}

// Validate checks field constraints.
func (i CommentInput) Validate() error {
	if err := validate.Struct(i); err != nil {
		return joinProblems(describe(err))
	}
	return nil
}

// CountWords counts whitespace-separated words.
func CountWords(body string) int {
	return len(strings.Fields(body))
}

// checkWords enforces the minimum only for finished stories so drafts can be
// saved while short.
func checkWords(body string, status Status, limits Limits) []string {
	words := CountWords(body)
	var problems []string
	if limits.MaxWords > 0 && words > limits.MaxWords {
		problems = append(problems, fmt.Sprintf("body must be at most %d words (got %d)", limits.MaxWords, words))
	}
	if status == StatusCompleted && words < limits.MinWords {
		problems = append(problems, fmt.Sprintf("completed stories need at least %d words (got %d)", limits.MinWords, words))
	}
	return problems
}

func describe(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := toSnake(fe.Field())
		switch fe.Tag() {
		case "required":
			problems = append(problems, field+" is required")
		case "required_if":
			problems = append(problems, field+" is required for "+string(ModeCompetition)+" stories")
		case "max":
			problems = append(problems, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "oneof":
			problems = append(problems, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			problems = append(problems, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return problems
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return errors.New(strings.Join(problems, "; "))
}

// toSnake turns a Go field name into its JSON name (AuthorID -> author_id).
func toSnake(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		upper := r >= 'A' && r <= 'Z'
		if upper && prevLower {
			b.WriteByte('_')
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
		prevLower = !upper
	}
	return b.String()
}
