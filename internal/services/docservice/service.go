// Package docservice implements the get_documentation and get_doc_by_name operations.
package docservice

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/docmcp/internal/config"
	"github.com/temirov/docmcp/internal/docmatch"
	"github.com/temirov/docmcp/internal/docs/githubdoc"
	"github.com/temirov/docmcp/internal/doctree"
)

const (
	ToolGetDocumentation = "get_documentation"
	ToolGetDocByName     = "get_doc_by_name"

	missingTokenMessage         = "Error: GITHUB_TOKEN no está configurado en las variables de entorno."
	missingNameMessage          = "Error: el parámetro 'name' es obligatorio."
	repoOrBranchNotFoundFormat  = "No se encontró el repo o la rama: https://github.com/%s/%s branch: %s"
	listingUnavailableFormat    = "No se encontraron archivos en %s o la respuesta no es válida."
	listingFailedFormat         = "Error al listar la documentación de GitHub: %s"
	noMatchFormat               = "No se encontró documentación para '%s'."
	singleMatchFormat           = "# %s\n\n%s"
	multipleMatchesHeaderFormat = "Se encontraron varias coincidencias para '%s':"
	multipleMatchesItemPrefix   = "\n- "
	contentUnavailableFormat    = "No se pudo obtener el contenido de '%s'."
	searchFailedFormat          = "Error al buscar la documentación: %s"

	detailsLabel      = "\nDetalles: "
	statusLabel       = "\nStatus: "
	stateLabel        = "\nEstado: "
	dataLabel         = "\nDatos: "
	logFieldTool      = "tool"
	logFieldQuery     = "query"
	logFieldMatches   = "matches"
	logFieldKind      = "kind"
	logFieldTreeID    = "tree_id"
	logFieldPaths     = "paths"
	logFieldPath      = "path"
	logFieldRecursive = "recursive"
)

// Repository is the remote view of the documentation directory.
type Repository interface {
	ResolveTreeID(ctx context.Context) (string, error)
	ListDocumentationFiles(ctx context.Context, treeID string, recursive bool) ([]string, error)
	ListMarkdownFiles(ctx context.Context, treeID string) ([]string, error)
	FetchFileContent(ctx context.Context, path string, ref string) ([]byte, error)
}

// Result is the text handed back to the caller. IsError marks a failed operation.
type Result struct {
	Text    string
	IsError bool
}

func success(text string) Result {
	return Result{Text: text}
}

func failure(text string) Result {
	return Result{Text: text, IsError: true}
}

// Service answers documentation requests against one repository.
type Service struct {
	configuration     config.ApplicationConfiguration
	documentationRoot string
	repository        Repository
	logger            *zap.Logger
}

// NewService creates a Service. A nil logger disables logging.
func NewService(configuration config.ApplicationConfiguration, repository Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		configuration:     configuration,
		documentationRoot: config.NormalizeDocumentationRoot(configuration.Repository.DocumentationRoot),
		repository:        repository,
		logger: logger.With(
			zap.String("owner", configuration.Repository.Owner),
			zap.String("repository", configuration.Repository.Name),
			zap.String("branch", configuration.Repository.Branch),
		),
	}
}

// GetDocumentation renders the documentation directory as a tree.
func (service *Service) GetDocumentation(ctx context.Context, recursive bool) Result {
	logger := service.logger.With(zap.String(logFieldTool, ToolGetDocumentation), zap.Bool(logFieldRecursive, recursive))
	if !service.configuration.HasToken() {
		logger.Warn("github token is not configured")
		return failure(missingTokenMessage)
	}
	treeID, err := service.repository.ResolveTreeID(ctx)
	if err != nil {
		logger.Warn("branch lookup failed", zap.Error(err))
		return failure(service.repoOrBranchNotFoundText(err))
	}
	paths, err := service.repository.ListDocumentationFiles(ctx, treeID, recursive)
	if err != nil {
		logger.Warn("documentation listing failed", zap.String(logFieldKind, string(githubdoc.KindOf(err))), zap.Error(err))
		if githubdoc.KindOf(err) == githubdoc.KindListingUnavailable {
			return failure(fmt.Sprintf(listingUnavailableFormat, service.documentationRoot))
		}
		return failure(withDetail(fmt.Sprintf(listingFailedFormat, githubdoc.DetailOf(err).Message), stateLabel, githubdoc.DetailOf(err)))
	}
	logger.Debug("documentation listed", zap.String(logFieldTreeID, treeID), zap.Int(logFieldPaths, len(paths)))
	tree := doctree.Build(paths)
	return success(doctree.RenderDocumentation(doctree.RootName(service.documentationRoot), tree))
}

// GetDocByName resolves name against the documentation files and returns the
// single matching file, the list of ambiguous matches, or a not-found error.
func (service *Service) GetDocByName(ctx context.Context, name string) Result {
	logger := service.logger.With(zap.String(logFieldTool, ToolGetDocByName), zap.String(logFieldQuery, name))
	if name == "" {
		return failure(missingNameMessage)
	}
	if !service.configuration.HasToken() {
		logger.Warn("github token is not configured")
		return failure(missingTokenMessage)
	}
	treeID, err := service.repository.ResolveTreeID(ctx)
	if err != nil {
		logger.Warn("branch lookup failed", zap.Error(err))
		return failure(service.repoOrBranchNotFoundText(err))
	}
	fullPaths, err := service.repository.ListMarkdownFiles(ctx, treeID)
	if err != nil {
		logger.Warn("markdown listing failed", zap.String(logFieldKind, string(githubdoc.KindOf(err))), zap.Error(err))
		if githubdoc.KindOf(err) == githubdoc.KindListingUnavailable {
			return failure(fmt.Sprintf(listingUnavailableFormat, service.documentationRoot))
		}
		return service.searchFailure(err)
	}
	matches := docmatch.Match(docmatch.NewCandidates(service.documentationRoot, fullPaths), name)
	logger.Debug("documentation matched", zap.Int(logFieldMatches, len(matches)))
	switch len(matches) {
	case 0:
		return failure(fmt.Sprintf(noMatchFormat, name))
	case 1:
		return service.fetchSingle(ctx, logger, matches[0])
	default:
		var builder strings.Builder
		builder.WriteString(fmt.Sprintf(multipleMatchesHeaderFormat, name))
		for _, relativePath := range docmatch.RelativePaths(matches) {
			builder.WriteString(multipleMatchesItemPrefix)
			builder.WriteString(relativePath)
		}
		return success(builder.String())
	}
}

func (service *Service) fetchSingle(ctx context.Context, logger *zap.Logger, match docmatch.Candidate) Result {
	content, err := service.repository.FetchFileContent(ctx, match.FullPath, service.configuration.Repository.Branch)
	if err != nil {
		logger.Warn("content fetch failed", zap.String(logFieldPath, match.FullPath), zap.Error(err))
		if githubdoc.KindOf(err) == githubdoc.KindContentUnavailable {
			return failure(fmt.Sprintf(contentUnavailableFormat, match.RelativePath))
		}
		return service.searchFailure(err)
	}
	return success(fmt.Sprintf(singleMatchFormat, match.RelativePath, string(content)))
}

func (service *Service) searchFailure(err error) Result {
	detail := githubdoc.DetailOf(err)
	return failure(withDetail(fmt.Sprintf(searchFailedFormat, detail.Message), stateLabel, detail))
}

func (service *Service) repoOrBranchNotFoundText(err error) string {
	repository := service.configuration.Repository
	text := fmt.Sprintf(repoOrBranchNotFoundFormat, repository.Owner, repository.Name, repository.Branch)
	detail := githubdoc.DetailOf(err)
	if detail.Message != "" {
		text += detailsLabel + detail.Message
	}
	return withDetail(text, statusLabel, detail)
}

// withDetail appends the status code and response body, when present, to text.
func withDetail(text string, statusPrefix string, detail githubdoc.Detail) string {
	if detail.StatusCode != 0 {
		text += fmt.Sprintf("%s%d", statusPrefix, detail.StatusCode)
	}
	if detail.Body != "" {
		text += dataLabel + detail.Body
	}
	return text
}
