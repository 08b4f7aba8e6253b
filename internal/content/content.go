// Package content holds the scripted texts of the Spirito Santo chatbot:
// the main menu, the intake flow questions, closing messages, and the
// static store knowledge used to ground AI answers.
//
// Question prompts are kept in explicit ordered tables indexed by question
// number so the mapping is statically verifiable.
package content

import (
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
)

// MenuText is the main option menu, re-sent after most completed turns.
const MenuText = `
📋 𝑺𝒑𝒊𝒓𝒊𝒕𝒐 𝑺𝒂𝒏𝒕𝒐 - Menu de Opções
1️⃣ Problemas com produto
2️⃣ Seja Franqueado
3️⃣ Virar Revendedor
4️⃣ Sobre a Spirito Santo
Digite o número da opção desejada.
`

// Greeting introduces the assistant.
const Greeting = "Olá! 👋 Sou o assistente virtual da Spirito Santo."

// ProblemsText points product-support requests at the human support channel.
const ProblemsText = `
⚠ Suporte ao Cliente
Para resolver seu problema mais rápido, fale diretamente com nosso atendimento humano no WhatsApp:
👉 https://web.whatsapp.com/send/?phone=5551981938778&text&source&data&app_absent

Por favor, envie:
- Foto do produto
- Descrição do problema

⏰ Atendimento: Seg-Sex: 10h às 19h | Sáb: 10h às 17h
`

// FranchiseStartText opens the franchise intake flow.
const FranchiseStartText = "🧑‍💼 Que ótimo o seu interesse em abrir uma franquia conosco! Para que possamos te enviar a apresentação completa, precisamos de alguns dados seus."

// FranchiseEndText closes the franchise intake flow.
const FranchiseEndText = "Obrigado! Aqui está a apresentação completa do nosso projeto de franquias:\n\nhttps://sults-bucket.s3.amazonaws.com/spiritosanto/ProjetoTarefa/2170/Novo_Projeto_de_Franquias_2.0_.pdf"

// ResellerStartText opens the reseller intake flow.
const ResellerStartText = "🤝 Que ótimo o seu interesse em revender nossos produtos! Antes de enviarmos nossa tabela de preços e condições, precisamos de algumas informações:"

// ResellerEndText closes the reseller intake flow.
const ResellerEndText = "Perfeito! Aqui está nossa tabela de preços e condições para revendedores:\n\nhttps://sults-bucket.s3.amazonaws.com/spiritosanto/ProjetoTarefa/2170/Novo_Projeto_de_Franquias_2.0_.pdf"

// AboutText describes the store; also the base of the AI knowledge text.
const AboutText = `
🌟 SOBRE A SPIRITO SANTO
Fundada em 2006 por Andreas & Frederico Renner Mentz.
📍 Lojas: IGUATEMI, MOINHOS, CANOAS, CAXIAS, ERECHIM, IJUÍ, PASSO FUNDO, PELOTAS, RIO GRANDE, SANTA MARIA, BARRA, PRAIA e MATRIZ.
👔 Moda urbana com atitude, casual e social.
🌐 www.spiritosanto.com.br | 📸 @spiritosanto
📦 Entregas em todo o Brasil.
`

// StoreInfo is the fixed knowledge base embedded in every AI prompt.
const StoreInfo = AboutText + `
A Spirito Santo é uma marca de moda masculina contemporânea.
`

// AIFallbackText is the fixed apology sent when the AI call fails.
const AIFallbackText = "Desculpe, não consegui processar sua solicitação no momento."

// franchiseQuestions maps question index 1..7 to its prompt text.
var franchiseQuestions = [models.IntakeQuestionCount]string{
	"1️⃣ Qual é o seu nome completo?",
	"2️⃣ Qual é o seu e-mail?",
	"3️⃣ Qual é o seu telefone/WhatsApp?",
	"4️⃣ Em qual cidade pretende abrir a franquia?",
	"5️⃣ Qual é o estado dessa cidade?",
	"6️⃣ Qual a data prevista para iniciar o projeto? (mês/ano)",
	`7️⃣ Qual capital disponível para investimento?
   Digite uma opção:
   1 - Entre R$ 200 mil e R$ 275 mil
   2 - Acima de R$ 350 mil
`,
}

// resellerQuestions maps question index 1..7 to its prompt text.
var resellerQuestions = [models.IntakeQuestionCount]string{
	"1️⃣ Qual é o seu nome completo?",
	"2️⃣ Qual é o seu e-mail?",
	"3️⃣ Qual é o seu telefone/WhatsApp?",
	"4️⃣ Qual é a sua cidade?",
	"5️⃣ Qual é o estado da sua cidade?",
	"6️⃣ Você já possui loja ou pretende iniciar?",
	"7️⃣ Qual é o seu tipo de negócio? (Loja física, online, ambos, outro)",
}

// CapitalRangeLabels maps the last franchise question's numeric options to
// their human-readable capital-range labels. Any other answer is stored
// verbatim.
var CapitalRangeLabels = map[string]string{
	"1": "Entre R$ 200 mil e R$ 275 mil",
	"2": "Acima de R$ 350 mil",
}

// Question returns the prompt text for question n (1-based) of the given
// intake flow.
func Question(flow models.IntakeFlow, n int) string {
	if n < 1 || n > models.IntakeQuestionCount {
		return ""
	}
	if flow == models.FlowReseller {
		return resellerQuestions[n-1]
	}
	return franchiseQuestions[n-1]
}

// StartText returns the intro message for the given intake flow.
func StartText(flow models.IntakeFlow) string {
	if flow == models.FlowReseller {
		return ResellerStartText
	}
	return FranchiseStartText
}

// EndText returns the closing message for the given intake flow.
func EndText(flow models.IntakeFlow) string {
	if flow == models.FlowReseller {
		return ResellerEndText
	}
	return FranchiseEndText
}
