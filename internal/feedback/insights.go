package feedback

import "strings"

// insightThreshold is how many BAD notes must hit a bucket before its
// insight is emitted. A single complaint is noise; two is a pattern.
const insightThreshold = 2

// insightBucket groups complaint keywords with the canned sentence
// emitted when the bucket recurs. One insight per bucket at most.
type insightBucket struct {
	keywords []string
	insight  string
}

// Keyword tables are data, like the detection keywords: swapping or
// localizing them never touches the counting logic below.
var insightBuckets = []insightBucket{
	{
		keywords: []string{"preço", "preco", "valor", "caro", "desconto"},
		insight:  "Cuidado ao falar de preços: houve reclamações sobre como os valores foram apresentados. Confirme os valores atuais antes de responder.",
	},
	{
		keywords: []string{"errado", "errada", "incorreto", "incorreta", "não é verdade", "nao e verdade"},
		insight:  "Houve respostas com informações incorretas. Só afirme o que estiver confirmado no catálogo ou na conversa.",
	},
	{
		keywords: []string{"grosseiro", "grosseira", "rude", "seco", "frio", "tom"},
		insight:  "Ajuste o tom das respostas: clientes acharam o atendimento pouco acolhedor. Seja cordial e próximo.",
	},
	{
		keywords: []string{"longo", "longa", "muito texto", "resumido", "resumir", "curto"},
		insight:  "Prefira respostas mais curtas e diretas: houve reclamações sobre o tamanho das mensagens.",
	},
	{
		keywords: []string{"não entendeu", "nao entendeu", "confundiu", "fora de contexto", "sem sentido"},
		insight:  "Releia a pergunta do cliente antes de responder: houve respostas fora do contexto da conversa.",
	},
}

// deriveInsights lowercases every non-empty BAD note and counts hits per
// bucket; a bucket that recurs at least twice emits its insight once.
func deriveInsights(badExamples []Example) []string {
	var notes []string
	for _, ex := range badExamples {
		if ex.Note != "" {
			notes = append(notes, strings.ToLower(ex.Note))
		}
	}
	if len(notes) < insightThreshold {
		return nil
	}

	var insights []string
	for _, bucket := range insightBuckets {
		count := 0
		for _, note := range notes {
			for _, kw := range bucket.keywords {
				if strings.Contains(note, kw) {
					count++
					break
				}
			}
		}
		if count >= insightThreshold {
			insights = append(insights, bucket.insight)
		}
	}
	return insights
}
