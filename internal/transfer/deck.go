package transfer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/verte-zerg/kioku/internal/model"
	"github.com/verte-zerg/kioku/internal/problem"
)

// LoadDeck reads a TSV deck from path. See ParseDeck.
func LoadDeck(path string, now time.Time) ([]model.Problem, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only deck.
			_ = cerr
		}
	}()
	return ParseDeck(file, now)
}

// ParseDeck reads one problem per line:
//
//	type<TAB>question<TAB>answer-or-side<TAB>categories[<TAB>explanation]
//
// For mask lines the question column holds HTML and the answer column is
// ignored. Categories are comma-separated. Blank lines and lines starting
// with # are skipped.
func ParseDeck(r io.Reader, now time.Time) ([]model.Problem, error) {
	var problems []model.Problem
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p, err := parseDeckLine(line, now)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		problems = append(problems, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(problems) == 0 {
		return nil, fmt.Errorf("deck is empty")
	}
	return problems, nil
}

func parseDeckLine(line string, now time.Time) (model.Problem, error) {
	cols := strings.Split(line, "\t")
	if len(cols) < 2 {
		return model.Problem{}, fmt.Errorf("expected at least 2 columns, got %d", len(cols))
	}
	col := func(i int) string {
		if i < len(cols) {
			return strings.TrimSpace(cols[i])
		}
		return ""
	}
	categories := problem.ParseCategories(col(3))

	switch t := model.ProblemType(strings.ToLower(col(0))); t {
	case model.TypeMask:
		return problem.NewMask(col(1), categories, now)
	case model.TypeQA:
		return problem.NewQA(col(1), col(2), categories, now)
	case model.TypeOX:
		side, err := ParseSide(col(2))
		if err != nil {
			return model.Problem{}, err
		}
		return problem.NewOX(col(1), side, col(4), categories, now)
	default:
		return model.Problem{}, fmt.Errorf("unknown problem type %q", col(0))
	}
}

// ParseSide accepts o/x and the common true/false spellings.
func ParseSide(s string) (model.Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "o", "○", "true", "t", "yes":
		return model.SideO, nil
	case "x", "×", "false", "f", "no":
		return model.SideX, nil
	}
	return "", fmt.Errorf("invalid ox side %q (expected o or x)", s)
}
