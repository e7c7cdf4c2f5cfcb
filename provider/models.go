package provider

// Static model catalogs, one per provider family. These mirror the model
// lists each vendor module in the source registered, kept as data rather
// than code so registering a provider is just wiring a base URL and key to
// one of these slices.

var mistralModels = []ModelInfo{
	{ModelID: "mistral-large-latest", ModelName: "Mistral Large", Description: "Most capable Mistral model for complex tasks"},
	{ModelID: "mistral-medium-latest", ModelName: "Mistral Medium", Description: "Balanced performance and cost"},
	{ModelID: "mistral-small-latest", ModelName: "Mistral Small", Description: "Fast and efficient for simpler tasks"},
}

var qwenModels = []ModelInfo{
	{ModelID: "qwen-max", ModelName: "Qwen Max", Description: "Most capable Qwen model for complex reasoning", SupportsThinking: true},
	{ModelID: "qwen-plus", ModelName: "Qwen Plus", Description: "Enhanced performance with good balance", SupportsThinking: true},
	{ModelID: "qwen-turbo", ModelName: "Qwen Turbo", Description: "Fast and cost-effective for most tasks", SupportsThinking: true},
	{ModelID: "qwen-long", ModelName: "Qwen Long", Description: "Optimized for long context processing"},
}

var glmModels = []ModelInfo{
	{ModelID: "glm-4-plus", ModelName: "GLM-4 Plus", Description: "Enhanced GLM-4 with improved capabilities", SupportsThinking: true},
	{ModelID: "glm-4-air", ModelName: "GLM-4 Air", Description: "Balanced performance and efficiency"},
	{ModelID: "glm-4-airx", ModelName: "GLM-4 AirX", Description: "Extended context version of GLM-4 Air"},
	{ModelID: "glm-4-flash", ModelName: "GLM-4 Flash", Description: "Fast inference for real-time applications"},
}

var minimaxModels = []ModelInfo{
	{ModelID: "MiniMax-M2.1", ModelName: "MiniMax-M2.1", Description: "Latest generation model with superior performance", SupportsThinking: true},
}

var deepseekModels = []ModelInfo{
	{ModelID: "deepseek-chat", ModelName: "DeepSeek Chat (V3.2)", Description: "DeepSeek's conversational model"},
	{ModelID: "deepseek-reasoner", ModelName: "DeepSeek Reasoner (V3.2)", Description: "Advanced reasoning model with chain-of-thought", SupportsThinking: true, ThinkingLocked: true},
}

var openaiModels = []ModelInfo{
	{ModelID: "gpt-5.2", ModelName: "GPT-5.2", Description: "Most capable GPT-5 model"},
	{ModelID: "gpt-5.2-chat", ModelName: "GPT-5.2 Chat", Description: "Most capable GPT-5 chat/instruct model"},
}

var geminiModels = []ModelInfo{
	{ModelID: "gemini-3-pro-preview", ModelName: "Gemini-3-pro-preview", Description: "Most powerful Gemini with thinking", SupportsThinking: true, ThinkingLocked: true},
	{ModelID: "gemini-3-flash-preview", ModelName: "gemini-3-flash-preview", Description: "Advanced Gemini model with thinking", SupportsThinking: true},
}
