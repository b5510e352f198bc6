package markup

import "strings"

// Спецсимволы MarkdownV2 телеграма, вне блоков кода
var replacer = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// Внутри `code` экранируются только обратная кавычка и слеш
var codeReplacer = strings.NewReplacer(
	"\\", "\\\\",
	"`", "\\`",
)

// Функция которая делает escape спец символы markdown специально для телеграма
func EscapeForMarkdown(src string) string {
	return replacer.Replace(src)
}

func Bold(src string) string {
	return "*" + EscapeForMarkdown(src) + "*"
}

func Code(src string) string {
	return "`" + codeReplacer.Replace(src) + "`"
}
