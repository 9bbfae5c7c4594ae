package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/temirov/docmcp/internal/services/docservice"
	"github.com/temirov/docmcp/internal/services/mcp"
)

type getDocumentationRequest struct {
	Recursive *bool `json:"recursive"`
}

type getDocByNameRequest struct {
	Name string `json:"name"`
}

func mcpCommandExecutors(service mcp.DocumentationService) map[string]mcp.CommandExecutor {
	return map[string]mcp.CommandExecutor{
		docservice.ToolGetDocumentation: mcp.CommandExecutorFunc(func(commandContext context.Context, request mcp.CommandRequest) (mcp.CommandResponse, error) {
			var payload getDocumentationRequest
			if err := decodePayload(request.Payload, &payload); err != nil {
				return mcp.CommandResponse{}, mcp.NewCommandExecutionError(http.StatusBadRequest, fmt.Errorf("decode %s request: %w", docservice.ToolGetDocumentation, err))
			}
			return commandResponse(service.GetDocumentation(commandContext, resolveBoolean(payload.Recursive, false))), nil
		}),
		docservice.ToolGetDocByName: mcp.CommandExecutorFunc(func(commandContext context.Context, request mcp.CommandRequest) (mcp.CommandResponse, error) {
			var payload getDocByNameRequest
			if err := decodePayload(request.Payload, &payload); err != nil {
				return mcp.CommandResponse{}, mcp.NewCommandExecutionError(http.StatusBadRequest, fmt.Errorf("decode %s request: %w", docservice.ToolGetDocByName, err))
			}
			return commandResponse(service.GetDocByName(commandContext, payload.Name)), nil
		}),
	}
}

// decodePayload accepts an empty body as an empty request.
func decodePayload(payload json.RawMessage, target any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, target)
}

func commandResponse(result docservice.Result) mcp.CommandResponse {
	return mcp.CommandResponse{Output: result.Text, Format: mcp.FormatRaw, IsError: result.IsError}
}

func resolveBoolean(value *bool, defaultValue bool) bool {
	if value == nil {
		return defaultValue
	}
	return *value
}
