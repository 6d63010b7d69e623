package node

import "strings"

// PreviewText 日志预览：空白折叠为单个空格，超过 maxRunes 时截断并追加省略号
func PreviewText(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	flat := strings.Join(strings.Fields(s), " ")
	runes := []rune(flat)
	if len(runes) <= maxRunes {
		return flat
	}
	return string(runes[:maxRunes]) + "…"
}
