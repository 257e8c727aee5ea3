package content

import (
	"math/rand"

	"codearena/internal/game"
	"codearena/internal/models"
)

// Card is one face-up card of a matching board. Its id is the card id the
// session accepts in Select.
type Card struct {
	ID   string    `json:"id"`
	Side game.Side `json:"side"`
	Text string    `json:"text"`
}

// TemplateView is a template with the ids of its blanks but not their answers
type TemplateView struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	BlankIDs []string `json:"blankIds"`
}

// QuestionView is a quiz question without its answer
type QuestionView struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

// StepView is one walkthrough step
type StepView struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
	Code        string `json:"code,omitempty"`
}

// View is what a client receives for an exercise: everything needed to render it
// and nothing that gives away an answer
type View struct {
	ID               string               `json:"id"`
	Version          int                  `json:"version"`
	Title            string               `json:"title"`
	Description      string               `json:"description,omitempty"`
	Kind             models.ExerciseKind  `json:"kind"`
	Variant          models.BlanksVariant `json:"variant,omitempty"`
	TimeLimitSeconds int                  `json:"timeLimitSeconds"`
	DiamondReward    int                  `json:"diamondReward"`
	ExperienceReward int                  `json:"experienceReward"`
	Available        bool                 `json:"available"`
	Cards            []Card               `json:"cards,omitempty"`
	Templates        []TemplateView       `json:"templates,omitempty"`
	Questions        []QuestionView       `json:"questions,omitempty"`
	Steps            []StepView           `json:"steps,omitempty"`
}

// PublicView strips answers from a definition. Matching cards are dealt in a
// random order so their position reveals nothing about which ones pair up.
func PublicView(def *models.ExerciseDefinition) View {
	return publicView(def, rand.Shuffle)
}

func publicView(def *models.ExerciseDefinition, shuffle func(n int, swap func(i, j int))) View {
	v := View{
		ID:               def.ID,
		Version:          def.Version,
		Title:            def.Title,
		Description:      def.Description,
		Kind:             def.Kind,
		Variant:          def.Variant,
		TimeLimitSeconds: def.TimeLimitSeconds,
		DiamondReward:    def.DiamondReward,
		ExperienceReward: def.ExperienceReward,
	}

	for _, p := range def.Pairs {
		v.Cards = append(v.Cards,
			Card{ID: game.PromptCard(p.ID), Side: game.SidePrompt, Text: p.Prompt},
			Card{ID: game.ResponseCard(p.ID), Side: game.SideResponse, Text: p.Response},
		)
	}
	if len(v.Cards) > 0 {
		shuffle(len(v.Cards), func(i, j int) {
			v.Cards[i], v.Cards[j] = v.Cards[j], v.Cards[i]
		})
	}

	for _, t := range def.Templates {
		tv := TemplateView{ID: t.ID, Text: t.Text}
		for _, b := range t.Blanks {
			tv.BlankIDs = append(tv.BlankIDs, b.ID)
		}
		v.Templates = append(v.Templates, tv)
	}
	for _, q := range def.Questions {
		v.Questions = append(v.Questions, QuestionView{ID: q.ID, Prompt: q.Prompt})
	}
	for _, s := range def.Steps {
		v.Steps = append(v.Steps, StepView{Title: s.Title, Description: s.Description, Code: s.Code})
	}

	if def.Kind == models.KindWalkthrough {
		v.Available = len(def.Steps) > 0
	} else {
		v.Available = def.UnitCount() > 0
	}
	return v
}
