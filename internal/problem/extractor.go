package problem

import "github.com/verte-zerg/kioku/internal/model"

// AnswerExtractor derives the answer fragments of a problem from its content.
type AnswerExtractor interface {
	ExtractAnswers(p model.Problem) []string
}

type maskExtractor struct{}

func (maskExtractor) ExtractAnswers(p model.Problem) []string {
	return ExtractMaskAnswers(p.HTML)
}

type qaExtractor struct{}

func (qaExtractor) ExtractAnswers(p model.Problem) []string {
	if p.Answer == "" {
		return nil
	}
	return []string{p.Answer}
}

type oxExtractor struct{}

func (oxExtractor) ExtractAnswers(p model.Problem) []string {
	return []string{string(normalizeSide(p.Correct))}
}

// ExtractorFor returns the extractor for a problem type.
func ExtractorFor(t model.ProblemType) AnswerExtractor {
	switch t {
	case model.TypeQA:
		return qaExtractor{}
	case model.TypeOX:
		return oxExtractor{}
	default:
		return maskExtractor{}
	}
}
