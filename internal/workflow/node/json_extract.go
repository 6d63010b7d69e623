package node

import (
	"encoding/json"
	"strings"
)

// extractJSONObject 从夹杂 Markdown 围栏或说明文字的参数中截取第一个完整 JSON 对象。
// 截取结果无法解析时返回原文。
func extractJSONObject(s string) string {
	raw := strings.TrimSpace(s)
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return raw
	}

	candidate := raw[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return raw
	}
	return candidate
}
