package llmcall

import (
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"

	llmctx "dream-planner-api/internal/domain/service"
)

var initOnce sync.Once

// Init 注册 eino 全局回调（进程级一次），之后的 ChatModel 调用都会经过 NewChatModelHandler
func Init(recorder llmctx.LLMUsageRecorder) {
	initOnce.Do(func() {
		handler := cbtemplate.NewHandlerHelper().
			ChatModel(NewChatModelHandler(recorder)).
			Handler()
		einocallbacks.AppendGlobalHandlers(handler)
	})
}
