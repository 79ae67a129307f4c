package router

import "github.com/akshsgaur/translator-agent/internal/llm"

// tutorTools is the fixed action schema presented to the routing model.
var tutorTools = []llm.Tool{
	{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        "translate",
			Description: "Translate specific text to another language. ONLY use when user explicitly asks to translate specific words or phrases like 'translate X to Y' or 'how do you say X in Y'.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text":            map[string]interface{}{"type": "string", "description": "The specific text to translate"},
					"target_language": map[string]interface{}{"type": "string", "description": "Target language"},
				},
				"required": []string{"text", "target_language"},
			},
		},
	},
	{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        "teach",
			Description: "Teach vocabulary, grammar, or language concepts. Use when user asks about specific words, grammar rules, or wants to learn a specific topic.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"topic":    map[string]interface{}{"type": "string", "description": "What to teach"},
					"language": map[string]interface{}{"type": "string", "description": "Target language"},
				},
				"required": []string{"topic", "language"},
			},
		},
	},
	{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        "exercise",
			Description: "Generate a practice exercise or quiz. Use when user wants to practice, test knowledge, or asks for exercises.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"language":   map[string]interface{}{"type": "string", "description": "Target language"},
					"difficulty": map[string]interface{}{"type": "string", "description": "beginner, intermediate, or advanced"},
				},
				"required": []string{"language"},
			},
		},
	},
	{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        "chat",
			Description: "General conversation and greetings. Use for: hello, hi, I want to learn, let's begin, thank you, questions about the tutor, or any casual conversation.",
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
				"required":   []string{},
			},
		},
	},
}
