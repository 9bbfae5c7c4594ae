package mcp

import (
	"context"
	"errors"
	"io"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/temirov/docmcp/internal/services/docservice"
)

const (
	// ServerName identifies the stdio server to MCP clients.
	ServerName = "edmachina-components"

	recursiveArgument = "recursive"
	nameArgument      = "name"

	getDocumentationDescription = "Devuelve la lista de carpetas y archivos dentro de la documentación del repositorio " +
		"como un árbol ordenado: cada carpeta termina en 📁 y cada archivo Markdown (.md) en 🧩."
	recursiveDescription = "Recorre todas las subcarpetas. Por defecto es false."

	getDocByNameDescription = "Devuelve el contenido completo y sin modificar del archivo Markdown de documentación del componente solicitado. " +
		"Si hay varias coincidencias devuelve la lista de rutas relativas encontradas. " +
		"Si no hay coincidencias responde exactamente: \"No se encontró documentación para '<nombre_del_componente>'.\""
	nameDescription = "Nombre del componente a buscar (ej: button, card_stats, input_default)."
)

// DocumentationService is the operation surface shared by every transport.
type DocumentationService interface {
	GetDocumentation(ctx context.Context, recursive bool) docservice.Result
	GetDocByName(ctx context.Context, name string) docservice.Result
}

// Capabilities describes the documentation tools for the HTTP capability listing.
func Capabilities() []Capability {
	return []Capability{
		{Name: docservice.ToolGetDocumentation, Description: getDocumentationDescription},
		{Name: docservice.ToolGetDocByName, Description: getDocByNameDescription},
	}
}

// ToolHandlers adapts a DocumentationService to mcp-go tool handlers.
type ToolHandlers struct {
	service DocumentationService
}

// NewToolHandlers creates ToolHandlers backed by service.
func NewToolHandlers(service DocumentationService) ToolHandlers {
	return ToolHandlers{service: service}
}

// HandleGetDocumentation serves the get_documentation tool.
func (handlers ToolHandlers) HandleGetDocumentation(ctx context.Context, request mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	result := handlers.service.GetDocumentation(ctx, request.GetBool(recursiveArgument, false))
	return toolResult(result), nil
}

// HandleGetDocByName serves the get_doc_by_name tool.
func (handlers ToolHandlers) HandleGetDocByName(ctx context.Context, request mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	result := handlers.service.GetDocByName(ctx, request.GetString(nameArgument, ""))
	return toolResult(result), nil
}

func toolResult(result docservice.Result) *mcpgo.CallToolResult {
	if result.IsError {
		return mcpgo.NewToolResultError(result.Text)
	}
	return mcpgo.NewToolResultText(result.Text)
}

// NewToolServer registers the documentation tools on a new MCP server.
func NewToolServer(service DocumentationService, version string) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer(ServerName, version, mcpserver.WithToolCapabilities(false))
	handlers := NewToolHandlers(service)

	server.AddTool(mcpgo.NewTool(
		docservice.ToolGetDocumentation,
		mcpgo.WithDescription(getDocumentationDescription),
		mcpgo.WithBoolean(recursiveArgument, mcpgo.Description(recursiveDescription)),
	), handlers.HandleGetDocumentation)

	server.AddTool(mcpgo.NewTool(
		docservice.ToolGetDocByName,
		mcpgo.WithDescription(getDocByNameDescription),
		mcpgo.WithString(nameArgument, mcpgo.Required(), mcpgo.Description(nameDescription)),
	), handlers.HandleGetDocByName)

	return server
}

// ServeStdio runs server over the given streams until input ends or ctx is canceled.
// Protocol errors are logged through logger; stdout stays reserved for the protocol.
func ServeStdio(ctx context.Context, server *mcpserver.MCPServer, input io.Reader, output io.Writer, logger *zap.Logger) error {
	stdioServer := mcpserver.NewStdioServer(server)
	if logger != nil {
		stdioServer.SetErrorLogger(zap.NewStdLog(logger))
	}
	if err := stdioServer.Listen(ctx, input, output); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
