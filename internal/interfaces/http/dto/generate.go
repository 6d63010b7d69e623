// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	wfmodel "dream-planner-api/internal/workflow/model"
)

// GenerateStepsRequest 步骤生成函数的请求体。
// 字段校验交给生成器，保证错误文案一致。
type GenerateStepsRequest struct {
	Dream  string `json:"dream"`
	Domain string `json:"domain"`
}

// GenerateStepsResponse 生成成功时的响应体
type GenerateStepsResponse struct {
	Steps []wfmodel.ActionStep `json:"steps"`
}

// FunctionError 函数接口的错误响应体
type FunctionError struct {
	Error string `json:"error"`
}
