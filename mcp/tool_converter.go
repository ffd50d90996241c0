// Package mcp bridges the function registry to the Model Context Protocol tool
// shape and from there to each chat vendor's tool format. It also hosts the
// stdio MCP server that exposes the same functions to external clients.
package mcp

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"stockchat/registry"
)

// ToolsFromSpecs describes registry functions as MCP tools. The MCP tool is
// the common shape every provider converter starts from.
func ToolsFromSpecs(specs []registry.FunctionSpec) []mcptypes.Tool {
	tools := make([]mcptypes.Tool, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, ToolFromSpec(spec))
	}
	return tools
}

func ToolFromSpec(spec registry.FunctionSpec) mcptypes.Tool {
	props := make(map[string]any, len(spec.Params))
	for _, p := range spec.Params {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
	}

	required := spec.RequiredParams()
	if required == nil {
		required = []string{}
	}

	return mcptypes.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		InputSchema: mcptypes.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
}

// ConvertMCPToolsToOllama converts MCP tools to Ollama API tool format
func ConvertMCPToolsToOllama(mcpTools []mcptypes.Tool) []api.Tool {
	out := make([]api.Tool, 0, len(mcpTools))
	for _, tool := range mcpTools {
		out = append(out, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  ollamaParameters(tool.InputSchema),
			},
		})
	}
	return out
}

func ollamaParameters(schema mcptypes.ToolInputSchema) api.ToolFunctionParameters {
	params := api.ToolFunctionParameters{
		Type:       schema.Type,
		Required:   schema.Required,
		Properties: make(map[string]api.ToolProperty, len(schema.Properties)),
	}
	for name, value := range schema.Properties {
		params.Properties[name] = ollamaProperty(value)
	}
	return params
}

func ollamaProperty(value any) api.ToolProperty {
	prop := api.ToolProperty{}

	m, ok := value.(map[string]any)
	if !ok {
		// Typed property structs go through JSON to get a plain map
		data, err := json.Marshal(value)
		if err != nil {
			return prop
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return prop
		}
	}

	switch t := m["type"].(type) {
	case string:
		prop.Type = api.PropertyType{t}
	case []string:
		prop.Type = api.PropertyType(t)
	case []any:
		types := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				types = append(types, s)
			}
		}
		prop.Type = api.PropertyType(types)
	}

	if desc, ok := m["description"].(string); ok {
		prop.Description = desc
	}
	if enum, ok := m["enum"].([]any); ok {
		prop.Enum = enum
	}
	return prop
}

// ConvertMCPToolsToOpenAIFormat converts MCP tools to the chat completions
// function tool format. OpenRouter accepts the same shape.
func ConvertMCPToolsToOpenAIFormat(mcpTools []mcptypes.Tool) []openai.ChatCompletionToolUnionParam {
	if len(mcpTools) == 0 {
		return nil
	}

	out := make([]openai.ChatCompletionToolUnionParam, len(mcpTools))
	for i, tool := range mcpTools {
		params := openai.FunctionParameters{
			"type":       tool.InputSchema.Type,
			"properties": tool.InputSchema.Properties,
		}
		if len(tool.InputSchema.Required) > 0 {
			params["required"] = tool.InputSchema.Required
		}

		out[i] = openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        tool.Name,
			Description: openai.String(tool.Description),
			Parameters:  params,
		})
	}
	return out
}

// ConvertMCPToolsToAnthropicFormat converts MCP tools to Anthropic tool params.
func ConvertMCPToolsToAnthropicFormat(mcpTools []mcptypes.Tool) []anthropic.ToolUnionParam {
	if len(mcpTools) == 0 {
		return nil
	}

	out := make([]anthropic.ToolUnionParam, len(mcpTools))
	for i, tool := range mcpTools {
		// Type defaults to "object" when omitted
		schema := anthropic.ToolInputSchemaParam{
			Properties: tool.InputSchema.Properties,
		}
		if len(tool.InputSchema.Required) > 0 {
			schema.Required = tool.InputSchema.Required
		}

		out[i] = anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if tool.Description != "" {
			out[i].OfTool.Description = anthropic.String(tool.Description)
		}
	}
	return out
}
