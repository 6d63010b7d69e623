package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	wfmodel "dream-planner-api/internal/workflow/model"
)

// ErrMalformedSteps 函数调用参数不满足 create_action_steps 约定
var ErrMalformedSteps = errors.New("malformed action steps payload")

type actionStepsPayload struct {
	Steps []json.RawMessage `json:"steps"`
}

type actionStepItem struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// ParseActionSteps 解析并校验函数调用参数。
// 步骤数必须在 [5,7]，每项 title/description 为非空字符串且 title 不超过 255 字符；不截断、不补齐，顺序保持不变。
func ParseActionSteps(arguments string) ([]wfmodel.ActionStep, error) {
	raw := strings.TrimSpace(arguments)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty arguments", ErrMalformedSteps)
	}

	if !json.Valid([]byte(raw)) {
		raw = extractJSONObject(raw)
	}

	var payload actionStepsPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSteps, err)
	}
	if payload.Steps == nil {
		return nil, fmt.Errorf("%w: missing steps", ErrMalformedSteps)
	}

	n := len(payload.Steps)
	if n < wfmodel.MinActionSteps || n > wfmodel.MaxActionSteps {
		return nil, fmt.Errorf("%w: got %d steps, want %d-%d", ErrMalformedSteps, n, wfmodel.MinActionSteps, wfmodel.MaxActionSteps)
	}

	steps := make([]wfmodel.ActionStep, 0, n)
	for i, item := range payload.Steps {
		var it actionStepItem
		if err := json.Unmarshal(item, &it); err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrMalformedSteps, i, err)
		}
		if it.Title == nil || it.Description == nil {
			return nil, fmt.Errorf("%w: step %d: missing title or description", ErrMalformedSteps, i)
		}
		step := wfmodel.ActionStep{Title: *it.Title, Description: *it.Description}
		if err := checkStep(i, step); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// ValidateActionSteps 校验调用方提供的步骤（导入场景），规则同 ParseActionSteps
func ValidateActionSteps(steps []wfmodel.ActionStep) error {
	n := len(steps)
	if n < wfmodel.MinActionSteps || n > wfmodel.MaxActionSteps {
		return fmt.Errorf("%w: got %d steps, want %d-%d", ErrMalformedSteps, n, wfmodel.MinActionSteps, wfmodel.MaxActionSteps)
	}
	for i, s := range steps {
		if err := checkStep(i, s); err != nil {
			return err
		}
	}
	return nil
}

// checkStep title/description 非空，title 不超过 steps.title 列宽
func checkStep(i int, s wfmodel.ActionStep) error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: step %d: missing title", ErrMalformedSteps, i)
	}
	if n := utf8.RuneCountInString(s.Title); n > wfmodel.MaxStepTitleRunes {
		return fmt.Errorf("%w: step %d: title has %d characters, max %d", ErrMalformedSteps, i, n, wfmodel.MaxStepTitleRunes)
	}
	if strings.TrimSpace(s.Description) == "" {
		return fmt.Errorf("%w: step %d: missing description", ErrMalformedSteps, i)
	}
	return nil
}
