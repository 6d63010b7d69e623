package model

import (
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/eino-contrib/jsonschema"

	"dream-planner-api/internal/domain/entity"
)

// 步骤数量边界
const (
	MinActionSteps = 5
	MaxActionSteps = 7
)

// MaxStepTitleRunes 步骤标题上限，与 steps.title 列宽一致
const MaxStepTitleRunes = 255

// ActionStepsToolName 强制模型调用的函数名
const ActionStepsToolName = "create_action_steps"

// ActionStep 生成的单个行动步骤，顺序即推进顺序
type ActionStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ActionStepsInput struct {
	Dream  string
	Domain entity.DreamDomain
	Model  string
}

type ActionStepsOutput struct {
	Steps []ActionStep
	Meta  LLMUsageMeta
}

// actionStepsParams create_action_steps 的参数 JSON Schema
func actionStepsParams() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"steps": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{
							"type":        "string",
							"description": "Short, action-oriented title",
							"maxLength":   MaxStepTitleRunes,
						},
						"description": map[string]any{
							"type":        "string",
							"description": "Detailed explanation of what to do and why",
						},
					},
					"required":             []string{"title", "description"},
					"additionalProperties": false,
				},
				"minItems": MinActionSteps,
				"maxItems": MaxActionSteps,
			},
		},
		"required":             []string{"steps"},
		"additionalProperties": false,
	}
}

// ActionStepsToolInfo 返回 create_action_steps 的工具声明
func ActionStepsToolInfo() (*schema.ToolInfo, error) {
	raw, err := json.Marshal(actionStepsParams())
	if err != nil {
		return nil, err
	}
	var params jsonschema.Schema
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("decode tool schema: %w", err)
	}
	return &schema.ToolInfo{
		Name:        ActionStepsToolName,
		Desc:        "Create a structured list of actionable steps to achieve a dream",
		ParamsOneOf: schema.NewParamsOneOfByJSONSchema(&params),
	}, nil
}
