package frequency

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

// CountryCode is prefixed to national numbers (DDD + number).
const CountryCode = "55"

const waBaseURL = "https://wa.me/"

// Notice carries everything needed to tell a leader about a member's frequency.
type Notice struct {
	LeaderName  string
	LeaderPhone string
	MemberName  string
	Role        string
	UnitName    string
	PeriodLabel string
	Stats       Stats
	Category    Category
}

// NormalizePhone keeps only digits and prefixes the country code to
// 10 or 11 digit national numbers.
func NormalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) >= 10 && len(digits) <= 11 {
		return CountryCode + digits
	}
	return digits
}

// BuildLeaderMessage renders the message sent to the generation leader.
func BuildLeaderMessage(n Notice) string {
	fault := int(math.Round(n.Stats.FaultPercent()))

	return fmt.Sprintf(`Olá, %s! Tudo bem?

Passando para informar a frequência de %s (%s) na unidade %s.

No mês de %s, tivemos:
• %d faltas
• %d presenças
• %d justificativas

Sinalizado como: %s
Percentual de faltas: %d%%

Peço, por favor, que faça um contato e alinhe uma conversa com %s para entendermos o que está acontecendo e então ajudarmos a regularizar a frequência.

Obrigado(a)!`,
		n.LeaderName,
		n.MemberName, n.Role, n.UnitName,
		n.PeriodLabel,
		n.Stats.Absences,
		n.Stats.Presences,
		n.Stats.Justifications,
		n.Category.String(),
		fault,
		n.MemberName,
	)
}

// WhatsAppLink returns the wa.me deep link for the notice. Opening it is up to the caller.
func WhatsAppLink(n Notice) string {
	return waBaseURL + NormalizePhone(n.LeaderPhone) + "?text=" + encodeComponent(BuildLeaderMessage(n))
}

// componentUnescaper restores the characters QueryEscape escapes but a
// URI component keeps literal.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent escapes s for use as a query value, spaces as %20.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
