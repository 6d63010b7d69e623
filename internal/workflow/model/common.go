package model

import "time"

// LLMUsageMeta 一次生成的模型与用量信息，取自 ResponseMeta
type LLMUsageMeta struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	GeneratedAt      time.Time
}
