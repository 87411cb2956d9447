package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewAllCallbacks aggregates all observer handlers (model, prompt) into one callbacks.Handler.
func NewAllCallbacks() einocb.Handler {
	modelHandler := newModelHandler()
	promptHandler := newPromptHandler()

	return callbackHelper.NewHandlerHelper().
		ChatModel(modelHandler).
		Prompt(promptHandler).
		Handler()
}
