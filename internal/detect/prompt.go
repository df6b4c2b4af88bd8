package detect

import (
	"fmt"
	"math"
	"strings"
)

// signalLabels translates detection signals for the prompt. The downstream
// LLM is tuned against these exact strings.
var signalLabels = map[Signal]string{
	SignalExplicitMention: "menção explícita",
	SignalPriceQuestion:   "pergunta sobre preço",
	SignalDetailsQuestion: "pergunta sobre detalhes",
	SignalComparison:      "comparação",
}

const schedulingAction = "⚡ **AÇÃO RECOMENDADA:** O cliente quer agendar! Ofereça horários disponíveis para o serviço de interesse."

// FormatForPrompt renders the detection result as the literal text block
// injected into the assistant's system prompt. Returns the empty string
// when no service was detected, so the caller can splice it in directly.
func FormatForPrompt(res *Result) string {
	if res == nil || res.DetectedService == nil {
		return ""
	}
	svc := res.DetectedService

	var sb strings.Builder
	sb.WriteString("### 🎯 CONTEXTO DA CONVERSA ATUAL\n\n")
	sb.WriteString("**IMPORTANTE:** O cliente já demonstrou interesse em um serviço específico!\n\n")
	fmt.Fprintf(&sb, "**Serviço de interesse detectado:** %s\n", svc.ServiceName)
	fmt.Fprintf(&sb, "**Preço:** R$ %s\n", svc.Price)
	fmt.Fprintf(&sb, "**Confiança:** %d%%\n", int(math.Round(svc.Confidence*100)))
	fmt.Fprintf(&sb, "**Detectado via:** %s\n", signalLabel(svc.DetectedFrom))

	if res.CustomerIntent == IntentScheduling {
		sb.WriteString("\n" + schedulingAction + "\n")
	}
	if len(res.RecentTopics) > 0 {
		fmt.Fprintf(&sb, "\n**Tópicos recentes na conversa:** %s\n", strings.Join(res.RecentTopics, ", "))
	}

	return sb.String()
}

func signalLabel(s Signal) string {
	if label, ok := signalLabels[s]; ok {
		return label
	}
	return string(s)
}
