package feedback

import (
	"fmt"
	"math"
	"strings"
)

// Rendering caps for the prompt block. The samples themselves are bounded
// upstream; these bound what actually gets injected.
const (
	maxBadExamplesInPrompt  = 5
	maxGoodExamplesInPrompt = 3

	customerMessageMaxLen = 150
	aiResponseMaxLen      = 200

	// approvalWarnBelow triggers the extra warning sentence.
	approvalWarnBelow = 70
)

const lowApprovalWarning = "⚠️ A taxa de aprovação está baixa. Siga os exemplos positivos e evite repetir os erros apontados acima."

// FormatForPrompt renders the feedback context as the literal text block
// injected into the assistant's system prompt. Returns the empty string
// when there is no feedback at all.
func FormatForPrompt(fc *FeedbackContext) string {
	if fc == nil {
		return ""
	}
	if fc.TotalGood+fc.TotalBad == 0 && len(fc.BadExamples) == 0 && len(fc.GoodExamples) == 0 && len(fc.LearningInsights) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("### 📊 APRENDIZADO COM FEEDBACKS DOS ATENDENTES\n\n")

	if len(fc.LearningInsights) > 0 {
		sb.WriteString("**⚠️ ALERTAS BASEADOS EM FEEDBACKS:**\n")
		for _, insight := range fc.LearningInsights {
			fmt.Fprintf(&sb, "- %s\n", insight)
		}
		sb.WriteString("\n")
	}

	noted := notedExamples(fc.BadExamples, maxBadExamplesInPrompt)
	if len(noted) > 0 {
		sb.WriteString("**❌ RESPOSTAS QUE RECEBERAM FEEDBACK NEGATIVO (EVITE REPETIR):**\n")
		for _, ex := range noted {
			fmt.Fprintf(&sb, "\nCliente: \"%s\"\n", truncate(ex.CustomerMessage, customerMessageMaxLen))
			fmt.Fprintf(&sb, "Resposta ruim: \"%s\"\n", truncate(ex.AIResponse, aiResponseMaxLen))
			fmt.Fprintf(&sb, "Motivo do feedback: %s\n", ex.Note)
		}
		sb.WriteString("\n")
	}

	if len(fc.GoodExamples) > 0 {
		sb.WriteString("**✅ RESPOSTAS QUE RECEBERAM FEEDBACK POSITIVO (USE COMO REFERÊNCIA):**\n")
		for i, ex := range fc.GoodExamples {
			if i >= maxGoodExamplesInPrompt {
				break
			}
			fmt.Fprintf(&sb, "\nCliente: \"%s\"\n", truncate(ex.CustomerMessage, customerMessageMaxLen))
			fmt.Fprintf(&sb, "Resposta boa: \"%s\"\n", truncate(ex.AIResponse, aiResponseMaxLen))
		}
		sb.WriteString("\n")
	}

	if total := fc.TotalGood + fc.TotalBad; total > 0 {
		rate := int(math.Round(float64(fc.TotalGood) / float64(total) * 100))
		fmt.Fprintf(&sb, "**📈 Taxa de aprovação atual: %d%%** (%d boas, %d ruins)\n", rate, fc.TotalGood, fc.TotalBad)
		if rate < approvalWarnBelow {
			sb.WriteString(lowApprovalWarning + "\n")
		}
	}

	return sb.String()
}

// notedExamples filters BAD examples down to those carrying a note, capped.
func notedExamples(examples []Example, max int) []Example {
	var out []Example
	for _, ex := range examples {
		if ex.Note == "" {
			continue
		}
		out = append(out, ex)
		if len(out) == max {
			break
		}
	}
	return out
}

// truncate returns text unchanged when it fits, otherwise the first max-3
// runes followed by "...".
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}
