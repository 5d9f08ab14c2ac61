package main

import (
	"context"

	ollama "github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/cockroachdb/errors"
)

// Agent runs a conversation through a chat model and the MCP tools.
type Agent = compose.Runnable[[]*schema.Message, []*schema.Message]

// ModelConfig selects the Ollama chat model.
type ModelConfig struct {
	BaseURL string
	Model   string
}

// buildAgent chains the chat model with the tools node. A tool agent stops
// after the tools run; otherwise the model phrases the final answer.
func buildAgent(ctx context.Context, mc ModelConfig, tools []tool.BaseTool, isToolAgent bool) (Agent, error) {
	chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: mc.BaseURL,
		Model:   mc.Model,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ollama chat model")
	}

	toolInfos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		toolInfos = append(toolInfos, info)
	}
	if err := chatModel.BindTools(toolInfos); err != nil {
		return nil, errors.Wrap(err, "failed to bind tools")
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools: tools,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tools node")
	}

	chain := compose.NewChain[[]*schema.Message, []*schema.Message]()
	chain.
		AppendChatModel(chatModel, compose.WithNodeName("chat_model")).
		AppendToolsNode(toolsNode, compose.WithNodeName("tools"))
	if !isToolAgent {
		chain.AppendChatModel(chatModel, compose.WithNodeName("chat_model_final"))
		chain.AppendLambda(compose.ToList[*schema.Message]())
	}

	return chain.Compile(ctx)
}
