package models

import "time"

// ExerciseKind identifies which widget plays an exercise
type ExerciseKind string

const (
	KindMatching    ExerciseKind = "matching"
	KindBlanks      ExerciseKind = "blanks"
	KindQuiz        ExerciseKind = "quiz"
	KindWalkthrough ExerciseKind = "walkthrough"
)

// BlanksVariant records which content shape a fill-in-the-blanks exercise came from
type BlanksVariant string

const (
	VariantNone           BlanksVariant = ""
	VariantSingleTemplate BlanksVariant = "single_template"
	VariantMultiExercise  BlanksVariant = "multi_exercise"
)

// ExerciseDefinition is the canonical, immutable description of an exercise
type ExerciseDefinition struct {
	ID               string
	Version          int
	Title            string
	Description      string
	Kind             ExerciseKind
	Variant          BlanksVariant
	Pairs            []Pair
	Templates        []Template
	Questions        []Question
	Steps            []Step
	TimeLimitSeconds int // 0 means untimed
	Shuffle          bool
	DiamondReward    int
	ExperienceReward int
}

// Pair is a prompt/response unit of a matching exercise
type Pair struct {
	ID       string
	Prompt   string
	Response string
}

// Template is a code snippet with blanks to fill in
type Template struct {
	ID     string
	Text   string
	Blanks []Blank
}

// Blank is one gap in a template
type Blank struct {
	ID           string
	Answer       string
	Alternatives []string
}

// Question is a quiz-style unit
type Question struct {
	ID           string
	Prompt       string
	Answer       string
	Alternatives []string
	Explanation  string
}

// Step is one frame of an algorithm walkthrough
type Step struct {
	Title       string
	Description string
	Code        string
}

// Answerable is anything checked by comparing submitted text with accepted answers
type Answerable struct {
	ID           string
	Answer       string
	Alternatives []string
}

// Answerables flattens blanks and questions into a single ordered list
func (d *ExerciseDefinition) Answerables() []Answerable {
	var out []Answerable
	for _, t := range d.Templates {
		for _, b := range t.Blanks {
			out = append(out, Answerable{ID: b.ID, Answer: b.Answer, Alternatives: b.Alternatives})
		}
	}
	for _, q := range d.Questions {
		out = append(out, Answerable{ID: q.ID, Answer: q.Answer, Alternatives: q.Alternatives})
	}
	return out
}

// UnitCount returns the number of units a session must resolve
func (d *ExerciseDefinition) UnitCount() int {
	switch d.Kind {
	case KindMatching:
		return len(d.Pairs)
	case KindBlanks, KindQuiz:
		return len(d.Answerables())
	default:
		return 0
	}
}

// ExerciseRecord is a stored catalog entry
type ExerciseRecord struct {
	ID        string
	Version   int
	Kind      ExerciseKind
	Title     string
	Body      string // raw JSON definition
	CreatedAt time.Time
	UpdatedAt time.Time
}
