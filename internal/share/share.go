package share

import (
	"net/url"
	"strings"
)

const composeBase = "https://wa.me/"

// ComposeURL builds a chat message-compose link addressed to phone with text
// prefilled. Non-digit characters in phone are dropped.
func ComposeURL(phone, text string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return composeBase + digits.String() + "?text=" + url.QueryEscape(text)
}
