package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"codearena/internal/models"
)

// ErrNoContent means a definition is empty or could not be read. Parse still returns
// the partial definition when the document itself was readable, so callers can show
// a "no content" state for a known exercise.
var ErrNoContent = errors.New("no exercise content available")

// Parse normalizes a JSON exercise document into a canonical definition
func Parse(data []byte) (*models.ExerciseDefinition, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoContent, err)
	}
	if raw == nil {
		return nil, ErrNoContent
	}
	return ParseMap(raw)
}

// ParseMap normalizes a decoded JSON or YAML document
func ParseMap(raw map[string]interface{}) (*models.ExerciseDefinition, error) {
	def := &models.ExerciseDefinition{
		ID:               str(raw, "id", "slug"),
		Version:          num(raw, "version", "contentVersion", "content_version"),
		Title:            str(raw, "title", "name"),
		Description:      str(raw, "description", "instructions"),
		TimeLimitSeconds: num(raw, "timeLimitSeconds", "time_limit_seconds", "timeLimit", "time_limit"),
		Shuffle:          flag(raw, "shuffle", "randomize"),
		DiamondReward:    num(raw, "diamondReward", "diamond_reward", "diamonds"),
		ExperienceReward: num(raw, "experienceReward", "experience_reward", "xpReward", "xp"),
	}
	if rewards, ok := raw["rewards"].(map[string]interface{}); ok {
		if def.DiamondReward == 0 {
			def.DiamondReward = num(rewards, "diamonds", "diamond")
		}
		if def.ExperienceReward == 0 {
			def.ExperienceReward = num(rewards, "experience", "xp")
		}
	}
	if def.Version <= 0 {
		def.Version = 1
	}
	if def.TimeLimitSeconds < 0 {
		def.TimeLimitSeconds = 0
	}

	def.Kind = kindOf(raw)
	seen := unitIDs{}
	switch def.Kind {
	case models.KindMatching:
		def.Pairs = parsePairs(raw, seen)
	case models.KindBlanks:
		def.Variant, def.Templates = parseTemplates(raw, seen)
	case models.KindQuiz:
		def.Questions = parseQuestions(raw, seen)
	case models.KindWalkthrough:
		def.Steps = parseSteps(raw)
	}

	if def.Kind == "" || isEmpty(def) {
		return def, ErrNoContent
	}
	return def, nil
}

func isEmpty(def *models.ExerciseDefinition) bool {
	if def.Kind == models.KindWalkthrough {
		return len(def.Steps) == 0
	}
	return def.UnitCount() == 0
}

// kindOf reads the declared type, falling back to whichever content field is present
func kindOf(raw map[string]interface{}) models.ExerciseKind {
	switch strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(str(raw, "kind", "type"))) {
	case "matching", "memory", "memory_game", "match":
		return models.KindMatching
	case "blanks", "fill_in_blanks", "fill_in_the_blanks", "fillblanks":
		return models.KindBlanks
	case "quiz", "data_exploration", "questions":
		return models.KindQuiz
	case "walkthrough", "visualizer", "algorithm_visualizer":
		return models.KindWalkthrough
	}

	switch {
	case raw["pairs"] != nil || raw["cards"] != nil:
		return models.KindMatching
	case raw["template"] != nil || raw["exercises"] != nil || raw["templates"] != nil:
		return models.KindBlanks
	case raw["questions"] != nil:
		return models.KindQuiz
	case raw["steps"] != nil:
		return models.KindWalkthrough
	}
	return ""
}

// unitIDs tracks the unit ids handed out within one definition
type unitIDs map[string]bool

// claim returns id if it is set and unused. Otherwise it falls back to the
// generated id, suffixed with a counter until nothing else holds it.
func (u unitIDs) claim(id, generated string) string {
	candidate := id
	if candidate == "" || u[candidate] {
		candidate = generated
	}
	for n := 2; u[candidate]; n++ {
		candidate = generated + "-" + strconv.Itoa(n)
	}
	if id != "" && candidate != id {
		log.Printf("Duplicate unit id %q renamed to %q", id, candidate)
	}
	u[candidate] = true
	return candidate
}

func parsePairs(raw map[string]interface{}, seen unitIDs) []models.Pair {
	var pairs []models.Pair
	for i, item := range list(raw, "pairs") {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		p := models.Pair{
			Prompt:   str(m, "prompt", "question", "term"),
			Response: str(m, "response", "answer", "definition"),
		}
		if p.Prompt != "" && p.Response != "" {
			p.ID = seen.claim(str(m, "id", "pairId", "pair_id"), strconv.Itoa(i+1))
			pairs = append(pairs, p)
		}
	}
	if len(pairs) > 0 {
		return pairs
	}
	return pairsFromCards(list(raw, "cards"))
}

// pairsFromCards groups a flat card deck by pair id. Cards without a partner are dropped.
func pairsFromCards(cards []interface{}) []models.Pair {
	byID := map[string]*models.Pair{}
	var order []string
	for _, item := range cards {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		pairID := str(m, "pairId", "pair_id", "matchId")
		text := str(m, "content", "text", "label")
		if pairID == "" || text == "" {
			continue
		}
		p, seen := byID[pairID]
		if !seen {
			p = &models.Pair{ID: pairID}
			byID[pairID] = p
			order = append(order, pairID)
		}
		switch strings.ToLower(str(m, "type", "side")) {
		case "answer", "response", "output":
			p.Response = text
		default:
			if p.Prompt == "" {
				p.Prompt = text
			} else {
				p.Response = text
			}
		}
	}

	var pairs []models.Pair
	for _, id := range order {
		if p := byID[id]; p.Prompt != "" && p.Response != "" {
			pairs = append(pairs, *p)
		}
	}
	return pairs
}

func parseTemplates(raw map[string]interface{}, seen unitIDs) (models.BlanksVariant, []models.Template) {
	if exercises := list(raw, "exercises", "templates"); len(exercises) > 0 {
		var out []models.Template
		templates := unitIDs{}
		for i, item := range exercises {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			id := templates.claim(str(m, "id"), "e"+strconv.Itoa(i+1))
			t := models.Template{
				ID:     id,
				Text:   str(m, "template", "code", "text"),
				Blanks: parseBlanks(id, list(m, "blanks", "answers"), seen),
			}
			if len(t.Blanks) > 0 {
				out = append(out, t)
			}
		}
		return models.VariantMultiExercise, out
	}

	t := models.Template{
		ID:     "t1",
		Text:   str(raw, "template", "code"),
		Blanks: parseBlanks("t1", list(raw, "blanks", "answers"), seen),
	}
	if len(t.Blanks) == 0 {
		return models.VariantSingleTemplate, nil
	}
	return models.VariantSingleTemplate, []models.Template{t}
}

// parseBlanks accepts objects with answer/alternatives or bare answer strings
func parseBlanks(templateID string, items []interface{}, seen unitIDs) []models.Blank {
	var blanks []models.Blank
	for i, item := range items {
		var b models.Blank
		var id string
		switch v := item.(type) {
		case string:
			b.Answer = v
		case map[string]interface{}:
			if s := str(v, "id"); s != "" {
				id = templateID + "." + s
			}
			b.Answer = str(v, "answer", "correct", "solution")
			b.Alternatives = strs(v, "alternatives", "acceptedAnswers", "accepted_answers", "alternates")
		}
		if strings.TrimSpace(b.Answer) != "" {
			b.ID = seen.claim(id, templateID+".b"+strconv.Itoa(i+1))
			blanks = append(blanks, b)
		}
	}
	return blanks
}

func parseQuestions(raw map[string]interface{}, seen unitIDs) []models.Question {
	var questions []models.Question
	for i, item := range list(raw, "questions") {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		q := models.Question{
			Prompt:       str(m, "question", "prompt", "text"),
			Answer:       str(m, "answer", "correctAnswer", "correct_answer"),
			Alternatives: strs(m, "alternatives", "acceptedAnswers", "accepted_answers"),
			Explanation:  str(m, "explanation"),
		}
		if q.Prompt != "" && strings.TrimSpace(q.Answer) != "" {
			q.ID = seen.claim(str(m, "id"), "q"+strconv.Itoa(i+1))
			questions = append(questions, q)
		}
	}
	return questions
}

func parseSteps(raw map[string]interface{}) []models.Step {
	var steps []models.Step
	for _, item := range list(raw, "steps") {
		switch v := item.(type) {
		case string:
			steps = append(steps, models.Step{Description: v})
		case map[string]interface{}:
			steps = append(steps, models.Step{
				Title:       str(v, "title"),
				Description: str(v, "description", "text"),
				Code:        str(v, "code"),
			})
		}
	}
	return steps
}

// str returns the first key holding a string or number
func str(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

// num returns the first key holding a number; JSON gives float64, YAML gives int
func num(m map[string]interface{}, keys ...string) int {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return int(math.Round(v))
		case int:
			return v
		case int64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

func flag(m map[string]interface{}, keys ...string) bool {
	for _, k := range keys {
		if v, ok := m[k].(bool); ok {
			return v
		}
	}
	return false
}

func list(m map[string]interface{}, keys ...string) []interface{} {
	for _, k := range keys {
		if v, ok := m[k].([]interface{}); ok {
			return v
		}
	}
	return nil
}

func strs(m map[string]interface{}, keys ...string) []string {
	var out []string
	for _, item := range list(m, keys...) {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
