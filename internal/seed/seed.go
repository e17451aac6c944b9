// Package seed loads quiz fixtures from YAML so a fresh database can be
// populated without an authoring frontend.
package seed

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"quizengine/internal/models"
	"quizengine/internal/validation"
)

// QuizFile is the on-disk fixture format
type QuizFile struct {
	ID        string         `yaml:"id"`
	Owner     string         `yaml:"owner"`
	Title     string         `yaml:"title"`
	Questions []QuestionFile `yaml:"questions"`
}

// QuestionFile is one question of a fixture. Correct holds 0-based option
// indices.
type QuestionFile struct {
	ID          string   `yaml:"id"`
	Prompt      string   `yaml:"prompt"`
	Options     []string `yaml:"options"`
	Correct     []int    `yaml:"correct"`
	Category    string   `yaml:"category"`
	Explanation string   `yaml:"explanation"`
}

// LoadFile reads and validates a fixture from path
func LoadFile(path, owner string) (*models.Quiz, []models.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()
	return Load(f, owner)
}

// Load decodes a fixture. A non-empty owner overrides the file's owner.
func Load(r io.Reader, owner string) (*models.Quiz, []models.Question, error) {
	var file QuizFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if owner != "" {
		file.Owner = owner
	}
	return file.build()
}

func (f *QuizFile) build() (*models.Quiz, []models.Question, error) {
	f.ID = strings.TrimSpace(f.ID)
	f.Owner = strings.TrimSpace(f.Owner)
	if err := validation.Identifier("quiz id", f.ID); err != nil {
		return nil, nil, err
	}
	if err := validation.Identifier("owner", f.Owner); err != nil {
		return nil, nil, err
	}
	if len(f.Questions) == 0 {
		return nil, nil, fmt.Errorf("%w: quiz %s has no questions", models.ErrInvalidArgument, f.ID)
	}

	quiz := &models.Quiz{ID: f.ID, OwnerID: f.Owner, Title: f.Title}
	questions := make([]models.Question, 0, len(f.Questions))
	seen := make(map[string]bool, len(f.Questions))

	for i, qf := range f.Questions {
		id := strings.TrimSpace(qf.ID)
		if id == "" {
			id = fmt.Sprintf("%s-q%d", f.ID, i+1)
		}
		if err := validation.Identifier("question id", id); err != nil {
			return nil, nil, err
		}
		if seen[id] {
			return nil, nil, fmt.Errorf("%w: duplicate question id %s", models.ErrInvalidArgument, id)
		}
		seen[id] = true

		q := models.Question{
			ID:          id,
			QuizID:      f.ID,
			Prompt:      qf.Prompt,
			Options:     qf.Options,
			Category:    strings.TrimSpace(qf.Category),
			Explanation: qf.Explanation,
		}
		if err := validateQuestion(&q, qf.Correct); err != nil {
			return nil, nil, err
		}
		questions = append(questions, q)
	}
	return quiz, questions, nil
}

func validateQuestion(q *models.Question, correct []int) error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: question %s has no prompt", models.ErrInvalidArgument, q.ID)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: question %s needs at least two options", models.ErrInvalidArgument, q.ID)
	}
	if len(correct) == 0 {
		return fmt.Errorf("%w: question %s has no correct option", models.ErrInvalidArgument, q.ID)
	}

	marked := make(map[int]bool, len(correct))
	for _, idx := range correct {
		if !q.ValidOption(idx) {
			return fmt.Errorf("%w: question %s marks option %d correct but has %d options",
				models.ErrInvalidArgument, q.ID, idx, len(q.Options))
		}
		marked[idx] = true
	}
	for idx := range q.Options {
		if marked[idx] {
			q.CorrectOptions = append(q.CorrectOptions, idx)
		}
	}
	return nil
}
