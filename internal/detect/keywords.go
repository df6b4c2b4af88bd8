package detect

import "strings"

// Fixed Portuguese keyword tables. They are data, not logic: scoring and
// intent classification only ever consult these lists, so swapping or
// localizing them never touches the algorithms in detector.go.

// interestKeywords mark an inbound message as an active buying signal.
// A message that already scored against a service and contains one of
// these has its score doubled.
var interestKeywords = []string{
	"quanto custa",
	"qual o preço",
	"qual o valor",
	"qual valor",
	"preço",
	"valor",
	"custa",
	"quero",
	"gostaria",
	"tenho interesse",
	"interessado",
	"interessada",
	"me interessa",
	"marca",
	"marcar",
	"agendar",
	"como funciona",
	"funciona",
	"detalhes",
	"inclui",
	"orçamento",
}

// priceSignalTerms retag a doubled score as a price question.
var priceSignalTerms = []string{"preço", "valor", "custa"}

// detailSignalTerms retag a doubled score as a details question.
var detailSignalTerms = []string{"funciona", "detalhes", "inclui"}

// Intent keyword lists, checked in priority order by classifyIntent:
// scheduling wins over pricing, pricing over information, information
// over comparison.

var schedulingKeywords = []string{
	"agendar",
	"marcar",
	"horário",
	"horario",
	"agenda",
	"disponível",
	"disponivel",
	"disponibilidade",
	"que horas",
	"reservar",
}

var pricingKeywords = []string{
	"preço",
	"preco",
	"valor",
	"quanto custa",
	"custo",
	"orçamento",
	"orcamento",
	"desconto",
	"promoção",
	"promocao",
}

var informationKeywords = []string{
	"como funciona",
	"o que é",
	"o que e",
	"detalhes",
	"informação",
	"informacao",
	"dúvida",
	"duvida",
	"saber mais",
	"me explica",
}

var comparisonKeywords = []string{
	"diferença",
	"diferenca",
	"comparar",
	"melhor que",
	"qual é melhor",
	"qual e melhor",
	"versus",
	"vale a pena",
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
