package problem

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/kioku/internal/model"
)

var testNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)

func TestNewMaskExtractsAnswers(t *testing.T) {
	body := `<p>The rate is <span class="mask">10%</span> and the base is <span class="mask"> price </span>.</p><script>alert(1)</script>`
	p, err := NewMask(body, []string{"tax", " tax ", "law"}, testNow)
	if err != nil {
		t.Fatalf("new mask: %v", err)
	}
	if p.Type != model.TypeMask {
		t.Fatalf("expected mask type, got %s", p.Type)
	}
	if len(p.Answers) != 2 || p.Answers[0] != "10%" || p.Answers[1] != "price" {
		t.Fatalf("unexpected answers: %v", p.Answers)
	}
	if strings.Contains(p.HTML, "script") {
		t.Fatalf("expected script to be stripped: %s", p.HTML)
	}
	if len(p.Categories) != 2 {
		t.Fatalf("expected deduplicated categories, got %v", p.Categories)
	}
	if p.Score != 0 || p.AnswerCount != 0 || p.CorrectCount != 0 || p.Deleted {
		t.Fatalf("expected zeroed counters: %+v", p)
	}
	if !strings.HasPrefix(p.ID, "p-") {
		t.Fatalf("unexpected id %q", p.ID)
	}
	if p.CreatedAt != testNow.UnixMilli() || p.UpdatedAt != p.CreatedAt {
		t.Fatalf("unexpected timestamps: %d %d", p.CreatedAt, p.UpdatedAt)
	}
}

func TestNewQARequiresBothFields(t *testing.T) {
	if _, err := NewQA("question", " ", nil, testNow); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	p, err := NewQA("What is the standard rate?", "10%", nil, testNow)
	if err != nil {
		t.Fatalf("new qa: %v", err)
	}
	if p.Summary != "Whatisthestandardrat" {
		t.Fatalf("unexpected summary %q", p.Summary)
	}
}

func TestNewOXDefaultsToO(t *testing.T) {
	p, err := NewOX("Exports are taxable.", "?", "Exports are exempt.", []string{"tax"}, testNow)
	if err != nil {
		t.Fatalf("new ox: %v", err)
	}
	if p.Correct != model.SideO {
		t.Fatalf("expected side o, got %q", p.Correct)
	}
	if !strings.HasSuffix(p.Summary, " (OX)") {
		t.Fatalf("expected ox suffix, got %q", p.Summary)
	}
}

func TestSanitizeHTMLDropsHandlers(t *testing.T) {
	out := SanitizeHTML(`<div onclick="x()" class="a"><iframe src="y"></iframe>text</div>`)
	if strings.Contains(out, "onclick") || strings.Contains(out, "iframe") {
		t.Fatalf("unexpected sanitized html: %s", out)
	}
	if !strings.Contains(out, `class="a"`) || !strings.Contains(out, "text") {
		t.Fatalf("expected content to survive: %s", out)
	}
}

func TestSanitizeHTMLKeepsOpenAttribute(t *testing.T) {
	out := SanitizeHTML(`<details open ONTOGGLE="x()" onerror="y()"><summary>s</summary>body</details>`)
	if !strings.Contains(out, "open") || !strings.Contains(out, "body") {
		t.Fatalf("expected open attribute to survive: %s", out)
	}
	if strings.Contains(strings.ToLower(out), "ontoggle") || strings.Contains(out, "onerror") {
		t.Fatalf("expected handlers dropped: %s", out)
	}
	for key, want := range map[string]bool{"onclick": true, "OnLoad": true, "open": false, "on": false, "class": false} {
		if got := isEventHandler(key); got != want {
			t.Fatalf("isEventHandler(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestDecodeListKeepsDamagedRecords(t *testing.T) {
	raw := []byte(`[
		{"id":"p-1","type":"mask","html":"A <span class=\"mask\">rule</span>","categories":"tax, law"},
		{"id":"p-2","type":"qa","question":"q","answer":"a","answerCount":"3","correctCount":"x","deleted":"yes"},
		"junk"
	]`)
	problems, skipped, err := DecodeList(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(problems) != 2 || len(skipped) != 1 {
		t.Fatalf("expected 2 problems and 1 skipped, got %d/%d", len(problems), len(skipped))
	}
	mask := problems[0]
	if len(mask.Categories) != 2 || len(mask.Answers) != 1 || mask.Answers[0] != "rule" {
		t.Fatalf("unexpected mask record %+v", mask)
	}
	qa := problems[1]
	if qa.AnswerCount != 3 || qa.CorrectCount != 0 || qa.Deleted {
		t.Fatalf("unexpected coerced record %+v", qa)
	}
	if _, _, err := DecodeList([]byte(`{"id":"p-1"}`)); err == nil {
		t.Fatalf("expected error for a non-array collection")
	}
}

func TestPlainTextMasks(t *testing.T) {
	body := `A <span class="mask">rule</span> applies.`
	if got := PlainText(body, false); got != "A [____] applies." {
		t.Fatalf("unexpected hidden text %q", got)
	}
	if got := PlainText(body, true); got != "A [rule] applies." {
		t.Fatalf("unexpected revealed text %q", got)
	}
}

func TestParseCategories(t *testing.T) {
	got := ParseCategories(" tax, law ,, tax")
	if len(got) != 2 || got[0] != "tax" || got[1] != "law" {
		t.Fatalf("unexpected categories %v", got)
	}
	if got := ParseCategories(""); len(got) != 0 {
		t.Fatalf("expected no categories, got %v", got)
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	p := model.Problem{ID: "p-1", Score: 42, AnswerCount: 1, CorrectCount: 3, Categories: []string{"a", "a", ""}}
	Normalize(&p)
	if p.Type != model.TypeMask {
		t.Fatalf("expected mask default, got %s", p.Type)
	}
	if p.Score != MaxScore {
		t.Fatalf("expected clamped score, got %v", p.Score)
	}
	if p.CorrectCount != 1 {
		t.Fatalf("expected correct count capped at answers, got %d", p.CorrectCount)
	}
	if len(p.Categories) != 1 {
		t.Fatalf("unexpected categories %v", p.Categories)
	}
	if p.Summary != "(empty)" {
		t.Fatalf("unexpected summary %q", p.Summary)
	}
}

func TestExtractorFor(t *testing.T) {
	qa := model.Problem{Type: model.TypeQA, Answer: "yes"}
	if got := ExtractorFor(model.TypeQA).ExtractAnswers(qa); len(got) != 1 || got[0] != "yes" {
		t.Fatalf("unexpected qa answers %v", got)
	}
	ox := model.Problem{Type: model.TypeOX, Correct: model.SideX}
	if got := ExtractorFor(model.TypeOX).ExtractAnswers(ox); len(got) != 1 || got[0] != "x" {
		t.Fatalf("unexpected ox answers %v", got)
	}
}

func TestSegmentsMarkMasks(t *testing.T) {
	segs := Segments(`<p>VAT is <span class="mask">10%</span> here</p>`, false)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %+v", segs)
	}
	if segs[0].Text != "VAT is " || segs[0].Mask {
		t.Fatalf("unexpected first segment %+v", segs[0])
	}
	if segs[1].Text != "[___]" || !segs[1].Mask {
		t.Fatalf("unexpected mask segment %+v", segs[1])
	}
	if segs[2].Text != " here\n" || segs[2].Mask {
		t.Fatalf("unexpected trailing segment %+v", segs[2])
	}
}
