package personalize

import (
	"regexp"
	"strconv"

	"github.com/marketpulse/campaignhub/internal/domain"
)

// placeholderRe matches {{name}} with optional inner whitespace. Names are
// case-sensitive; anything not in the customer variable set stays verbatim.
var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// Vars builds the substitution set for one customer. Only these names are
// ever replaced; total_spent carries a currency prefix.
func Vars(c *domain.Customer) map[string]string {
	return map[string]string{
		"customer_name":      c.DisplayName(),
		"company_name":       c.Company,
		"location":           c.Location,
		"country":            c.Country,
		"city":               c.City,
		"total_spent":        "$" + strconv.FormatFloat(c.TotalSpent, 'f', -1, 64),
		"campaigns_accepted": strconv.Itoa(c.CampaignsAccepted),
	}
}

// Render substitutes known placeholders in template with the customer's
// values. Rendering is pure: the same template and customer always produce
// byte-identical output.
func Render(template string, c *domain.Customer) string {
	vars := Vars(c)
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		if val, ok := vars[name]; ok {
			return val
		}
		return match
	})
}

// Compliance footers appended by the dispatcher per channel.
const (
	WhatsAppFooter = "\n\nReply STOP to opt out of future messages."
	EmailFooter    = "\n\nYou received this email because you subscribed to our updates. To unsubscribe, reply with UNSUBSCRIBE."
)

// Footer returns the compliance footer for a channel.
func Footer(ch domain.Channel) string {
	switch ch {
	case domain.ChannelWhatsApp:
		return WhatsAppFooter
	case domain.ChannelEmail:
		return EmailFooter
	default:
		return ""
	}
}
