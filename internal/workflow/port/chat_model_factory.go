package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelFactory 定义工作流层对 AI 网关 ChatModel 的最小依赖（port）。
// 每次调用都重新读取凭证，未配置时不得发起网络请求。
type ChatModelFactory interface {
	Get(ctx context.Context, modelName string) (model.ToolCallingChatModel, error)
}
