package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "dream-planner-api/internal/domain/service"
	wfmodel "dream-planner-api/internal/workflow/model"
	"dream-planner-api/internal/workflow/node"
	workflowport "dream-planner-api/internal/workflow/port"
	workflowprompt "dream-planner-api/internal/workflow/prompt"
)

const actionStepsLLMNode = "action_steps.llm"

// ActionStepsChain 组装提示词、强制调用 create_action_steps 并校验返回的步骤
type ActionStepsChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.ActionStepsInput, *wfmodel.ActionStepsOutput]
	chainErr  error
}

func NewActionStepsChain(factory workflowport.ChatModelFactory) *ActionStepsChain {
	return &ActionStepsChain{factory: factory}
}

func (c *ActionStepsChain) Invoke(ctx context.Context, in *wfmodel.ActionStepsInput) (*wfmodel.ActionStepsOutput, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type actionStepsState struct {
	In       *wfmodel.ActionStepsInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *ActionStepsChain) getChain() (compose.Runnable[*wfmodel.ActionStepsInput, *wfmodel.ActionStepsOutput], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *ActionStepsChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.ActionStepsInput, *wfmodel.ActionStepsOutput], error) {
	chain := compose.NewChain[*wfmodel.ActionStepsInput, *wfmodel.ActionStepsOutput]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.ActionStepsInput) (*actionStepsState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			if strings.TrimSpace(in.Dream) == "" {
				return nil, fmt.Errorf("dream is required")
			}
			return &actionStepsState{In: in}, nil
		}),
		compose.WithNodeName("action_steps.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *actionStepsState) (*actionStepsState, error) {
			msgs, err := FormatActionStepsMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("action_steps.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *actionStepsState) (*actionStepsState, error) {
			ctx = withActionStepsWorkflow(ctx)
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Model))
			if err != nil {
				return nil, err
			}

			toolInfo, err := wfmodel.ActionStepsToolInfo()
			if err != nil {
				return nil, err
			}
			withTools, err := chatModel.WithTools([]*schema.ToolInfo{toolInfo})
			if err != nil {
				return nil, fmt.Errorf("bind %s: %w", wfmodel.ActionStepsToolName, err)
			}

			typ, _ := components.GetType(withTools)
			ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
				Name:      actionStepsLLMNode,
				Type:      typ,
				Component: components.ComponentOfChatModel,
			})
			outMsg, err := withTools.Generate(ctx, st.Messages, model.WithToolChoice(schema.ToolChoiceForced))
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("%w: empty llm response", node.ErrMalformedSteps)
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName(actionStepsLLMNode),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *actionStepsState) (*wfmodel.ActionStepsOutput, error) {
			if len(st.OutMsg.ToolCalls) == 0 {
				return nil, fmt.Errorf("%w: no tool call in response", node.ErrMalformedSteps)
			}
			steps, err := node.ParseActionSteps(st.OutMsg.ToolCalls[0].Function.Arguments)
			if err != nil {
				return nil, err
			}
			return &wfmodel.ActionStepsOutput{Steps: steps, Meta: usageMeta(st)}, nil
		}),
		compose.WithNodeName("action_steps.parse"),
	)

	return chain.Compile(ctx)
}

// withActionStepsWorkflow 未指定来源时归为 generate_steps
func withActionStepsWorkflow(ctx context.Context) context.Context {
	workflow := llmctx.WorkflowFromContext(ctx)
	if workflow == "unknown" {
		workflow = llmctx.WorkflowGenerateSteps
	}
	return llmctx.WithWorkflowProvider(ctx, workflow, llmctx.ProviderAIGateway)
}

func usageMeta(st *actionStepsState) wfmodel.LLMUsageMeta {
	meta := wfmodel.LLMUsageMeta{
		Provider:    llmctx.ProviderAIGateway,
		Model:       strings.TrimSpace(st.In.Model),
		GeneratedAt: time.Now().UTC(),
	}
	if rm := st.OutMsg.ResponseMeta; rm != nil && rm.Usage != nil {
		meta.PromptTokens = rm.Usage.PromptTokens
		meta.CompletionTokens = rm.Usage.CompletionTokens
	}
	return meta
}

var actionStepsPromptRegistry = workflowprompt.NewRegistry()

// FormatActionStepsMessages 渲染 system + user 两条消息；领域必须在侧重点表中
func FormatActionStepsMessages(ctx context.Context, in *wfmodel.ActionStepsInput) ([]*schema.Message, error) {
	emphasis, ok := workflowprompt.DomainEmphasis(in.Domain)
	if !ok {
		return nil, fmt.Errorf("unsupported domain: %q", in.Domain)
	}
	tpl, err := actionStepsPromptRegistry.ChatTemplate(workflowprompt.PromptActionStepsV1)
	if err != nil {
		return nil, err
	}
	return tpl.Format(ctx, map[string]any{
		"domain":          string(in.Domain),
		"domain_emphasis": emphasis,
		"dream":           in.Dream,
	})
}
