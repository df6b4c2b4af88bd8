package feedback

import (
	"strings"
	"testing"

	"github.com/atendezap/insight/internal/chat"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"longer than max", "abcdefgh", 5, "ab..."},
		{"shorter than max", "ab", 5, "ab"},
		{"exactly max", "abcde", 5, "abcde"},
		{"empty", "", 5, ""},
		{"multibyte runes", "ação de graças", 8, "ação ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestFormatForPrompt_EmptyWithoutFeedback(t *testing.T) {
	if got := FormatForPrompt(nil); got != "" {
		t.Errorf("nil context rendered %q", got)
	}
	if got := FormatForPrompt(&FeedbackContext{}); got != "" {
		t.Errorf("zero context rendered %q", got)
	}
}

func TestFormatForPrompt_ApprovalRate(t *testing.T) {
	tests := []struct {
		name        string
		good, bad   int
		wantLine    string
		wantWarning bool
	}{
		{"healthy rate", 9, 1, "Taxa de aprovação atual: 90%** (9 boas, 1 ruins)", false},
		{"low rate warns", 1, 2, "Taxa de aprovação atual: 33%** (1 boas, 2 ruins)", true},
		{"exactly seventy does not warn", 7, 3, "Taxa de aprovação atual: 70%** (7 boas, 3 ruins)", false},
		{"rounding", 2, 1, "Taxa de aprovação atual: 67%** (2 boas, 1 ruins)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatForPrompt(&FeedbackContext{TotalGood: tt.good, TotalBad: tt.bad})
			if !strings.Contains(got, tt.wantLine) {
				t.Errorf("missing %q in:\n%s", tt.wantLine, got)
			}
			hasWarning := strings.Contains(got, "taxa de aprovação está baixa")
			if hasWarning != tt.wantWarning {
				t.Errorf("warning present = %v, want %v:\n%s", hasWarning, tt.wantWarning, got)
			}
		})
	}
}

func TestFormatForPrompt_RateOmittedWhenUnrated(t *testing.T) {
	fc := &FeedbackContext{
		BadExamples: []Example{
			{CustomerMessage: "oi", AIResponse: "olá", Feedback: chat.FeedbackBad, Note: "seco"},
		},
	}
	got := FormatForPrompt(fc)
	if got == "" {
		t.Fatal("examples without totals must still render a block")
	}
	if strings.Contains(got, "Taxa de aprovação") {
		t.Errorf("approval line must be omitted when totals are zero:\n%s", got)
	}
}

func TestFormatForPrompt_ExampleCapsAndTruncation(t *testing.T) {
	long := strings.Repeat("x", 300)

	var bads []Example
	for i := 0; i < 8; i++ {
		bads = append(bads, Example{
			CustomerMessage: long,
			AIResponse:      long,
			Feedback:        chat.FeedbackBad,
			Note:            "nota",
		})
	}
	// A noteless BAD example must never be rendered.
	bads = append([]Example{{CustomerMessage: "a", AIResponse: "b", Feedback: chat.FeedbackBad}}, bads...)

	var goods []Example
	for i := 0; i < 5; i++ {
		goods = append(goods, Example{CustomerMessage: "pergunta", AIResponse: "resposta", Feedback: chat.FeedbackGood})
	}

	fc := &FeedbackContext{
		BadExamples:  bads,
		GoodExamples: goods,
		TotalGood:    50,
		TotalBad:     10,
	}
	got := FormatForPrompt(fc)

	if n := strings.Count(got, "Resposta ruim:"); n != 5 {
		t.Errorf("rendered %d bad examples, want 5", n)
	}
	if n := strings.Count(got, "Resposta boa:"); n != 3 {
		t.Errorf("rendered %d good examples, want 3", n)
	}
	if strings.Contains(got, strings.Repeat("x", 201)) {
		t.Errorf("AI responses must be truncated to 200 characters")
	}
	if !strings.Contains(got, "...") {
		t.Errorf("truncated text must end in ellipsis")
	}
}

func TestFormatForPrompt_InsightBullets(t *testing.T) {
	fc := &FeedbackContext{
		TotalGood:        3,
		TotalBad:         2,
		LearningInsights: []string{"Prefira respostas mais curtas e diretas."},
	}
	got := FormatForPrompt(fc)
	if !strings.Contains(got, "**⚠️ ALERTAS BASEADOS EM FEEDBACKS:**") {
		t.Errorf("missing insights header:\n%s", got)
	}
	if !strings.Contains(got, "- Prefira respostas mais curtas e diretas.") {
		t.Errorf("missing insight bullet:\n%s", got)
	}
}
