package bot

import (
	"net/url"
	"strings"
)

// markdownV2Specials are the characters Telegram requires escaping in
// MarkdownV2 formatted text.
const markdownV2Specials = "_*[]()~`>#+-=|{}.!"

// escapeMarkdownV2 backslash-escapes text for use in MarkdownV2 messages.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(markdownV2Specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// deepLink builds a t.me link that, when opened, sends the bot a
// "/start <args joined by underscores>" message.
func deepLink(botName string, args ...string) string {
	return "https://t.me/" + url.QueryEscape(botName) + "?start=" + strings.Join(args, "_")
}
