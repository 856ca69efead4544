package problem

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/kioku/internal/model"
)

// DecodeList decodes a persisted problem collection one element at a time.
// Wrongly typed fields fall back to their zero value (numeric strings are
// parsed) so one bad field never costs the rest of the record. Elements that
// are not objects or carry no id are skipped and reported in skipped. err is
// set only when raw is not a JSON array.
func DecodeList(raw []byte) (problems []model.Problem, skipped []error, err error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil, err
	}
	problems = make([]model.Problem, 0, len(items))
	for i, item := range items {
		p, err := decodeLenient(item)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("problem %d: %w", i, err))
			continue
		}
		problems = append(problems, p)
	}
	return problems, skipped, nil
}

func decodeLenient(raw json.RawMessage) (model.Problem, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return model.Problem{}, fmt.Errorf("not an object")
	}
	p := model.Problem{
		ID:           strings.TrimSpace(stringField(fields["id"])),
		Type:         model.ProblemType(stringField(fields["type"])),
		Categories:   categoriesField(fields["categories"]),
		HTML:         stringField(fields["html"]),
		Answers:      stringsField(fields["answers"]),
		Question:     stringField(fields["question"]),
		Answer:       stringField(fields["answer"]),
		Correct:      model.Side(stringField(fields["correct"])),
		Explanation:  stringField(fields["explanation"]),
		Summary:      stringField(fields["summary"]),
		Score:        numberField(fields["score"]),
		AnswerCount:  int(numberField(fields["answerCount"])),
		CorrectCount: int(numberField(fields["correctCount"])),
		Deleted:      boolField(fields["deleted"]),
		CreatedAt:    int64(numberField(fields["createdAt"])),
		UpdatedAt:    int64(numberField(fields["updatedAt"])),
	}
	if p.ID == "" {
		return model.Problem{}, fmt.Errorf("missing id")
	}
	Normalize(&p)
	if p.Type == model.TypeMask && len(p.Answers) == 0 && p.HTML != "" {
		p.Answers = ExtractorFor(model.TypeMask).ExtractAnswers(p)
	}
	return p, nil
}

func stringField(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func numberField(raw json.RawMessage) float64 {
	var v float64
	if json.Unmarshal(raw, &v) != nil {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(stringField(raw)), 64)
		if err != nil {
			return 0
		}
		v = parsed
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func boolField(raw json.RawMessage) bool {
	var b bool
	if json.Unmarshal(raw, &b) != nil {
		return false
	}
	return b
}

func stringsField(raw json.RawMessage) []string {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

// categoriesField accepts a label array or a comma-separated string.
func categoriesField(raw json.RawMessage) []string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return ParseCategories(s)
	}
	return stringsField(raw)
}
