package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactPhone masks a phone number, keeping only the country prefix and the
// last two digits: "+5511999990000" → "+55*********00".
func RedactPhone(phone string) string {
	if len(phone) < 6 {
		return "***"
	}
	keepHead := 3
	if !strings.HasPrefix(phone, "+") {
		keepHead = 2
	}
	masked := strings.Repeat("*", len(phone)-keepHead-2)
	return phone[:keepHead] + masked + phone[len(phone)-2:]
}
