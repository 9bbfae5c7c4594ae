package docservice_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	gogithub "github.com/google/go-github/v75/github"
	"github.com/stretchr/testify/require"

	"github.com/temirov/docmcp/internal/config"
	"github.com/temirov/docmcp/internal/docs/githubdoc"
	"github.com/temirov/docmcp/internal/services/docservice"
)

const testTreeID = "tree-1"

type fakeRepository struct {
	treeErr      error
	listing      []string
	listingErr   error
	markdown     []string
	markdownErr  error
	contents     map[string]string
	contentErr   error
	calls        []string
	recursive    []bool
	fetchedRefs  []string
	fetchedPaths []string
}

func (repository *fakeRepository) ResolveTreeID(context.Context) (string, error) {
	repository.calls = append(repository.calls, "ResolveTreeID")
	if repository.treeErr != nil {
		return "", repository.treeErr
	}
	return testTreeID, nil
}

func (repository *fakeRepository) ListDocumentationFiles(_ context.Context, treeID string, recursive bool) ([]string, error) {
	repository.calls = append(repository.calls, "ListDocumentationFiles")
	repository.recursive = append(repository.recursive, recursive)
	if treeID != testTreeID {
		return nil, fmt.Errorf("unexpected tree id %s", treeID)
	}
	return repository.listing, repository.listingErr
}

func (repository *fakeRepository) ListMarkdownFiles(_ context.Context, treeID string) ([]string, error) {
	repository.calls = append(repository.calls, "ListMarkdownFiles")
	if treeID != testTreeID {
		return nil, fmt.Errorf("unexpected tree id %s", treeID)
	}
	return repository.markdown, repository.markdownErr
}

func (repository *fakeRepository) FetchFileContent(_ context.Context, path string, ref string) ([]byte, error) {
	repository.calls = append(repository.calls, "FetchFileContent")
	repository.fetchedPaths = append(repository.fetchedPaths, path)
	repository.fetchedRefs = append(repository.fetchedRefs, ref)
	if repository.contentErr != nil {
		return nil, repository.contentErr
	}
	return []byte(repository.contents[path]), nil
}

func testConfiguration(token string) config.ApplicationConfiguration {
	return config.ApplicationConfiguration{
		Token: token,
		Repository: config.Repository{
			Owner:             "acme",
			Name:              "ui",
			Branch:            "main",
			DocumentationRoot: config.DefaultDocumentationRoot,
		},
	}
}

func sampleMarkdown() []string {
	return []string{
		"src/documentation/buttons/button_default.md",
		"src/documentation/forms/input_text.md",
	}
}

func notFoundError(message string) error {
	return &gogithub.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  message,
	}
}

func TestOperationsRequireToken(t *testing.T) {
	repository := &fakeRepository{}
	service := docservice.NewService(testConfiguration(""), repository, nil)

	treeResult := service.GetDocumentation(context.Background(), true)
	require.True(t, treeResult.IsError)
	require.Equal(t, "Error: GITHUB_TOKEN no está configurado en las variables de entorno.", treeResult.Text)

	docResult := service.GetDocByName(context.Background(), "button")
	require.True(t, docResult.IsError)
	require.Equal(t, treeResult.Text, docResult.Text)

	require.Empty(t, repository.calls)
}

func TestGetDocumentationRendersTree(t *testing.T) {
	repository := &fakeRepository{listing: []string{
		"buttons",
		"buttons/button_default.md",
		"forms",
		"forms/input_text.md",
	}}
	service := docservice.NewService(testConfiguration("secret"), repository, nil)

	result := service.GetDocumentation(context.Background(), true)
	require.False(t, result.IsError)
	require.Equal(t, "documentation/ 📁\n├── buttons/ 📁\n    └── button_default.md 🧩\n└── forms/ 📁\n    └── input_text.md 🧩", result.Text)
	require.Equal(t, []bool{true}, repository.recursive)
}

func TestGetDocumentationForwardsNonRecursiveFlag(t *testing.T) {
	repository := &fakeRepository{listing: []string{}}
	service := docservice.NewService(testConfiguration("secret"), repository, nil)

	result := service.GetDocumentation(context.Background(), false)
	require.False(t, result.IsError)
	require.Equal(t, "documentation/ 📁", result.Text)
	require.Equal(t, []bool{false}, repository.recursive)
}

func TestGetDocumentationReportsFailures(t *testing.T) {
	testCases := []struct {
		name     string
		repo     *fakeRepository
		expected string
	}{
		{
			name: "branch_not_found",
			repo: &fakeRepository{treeErr: githubdoc.NewError(githubdoc.KindRepoOrBranchNotFound, notFoundError("Branch not found"))},
			expected: "No se encontró el repo o la rama: https://github.com/acme/ui branch: main" +
				"\nDetalles: Branch not found\nStatus: 404\nDatos: ",
		},
		{
			name:     "listing_unavailable",
			repo:     &fakeRepository{listingErr: githubdoc.NewError(githubdoc.KindListingUnavailable, errors.New("no tree"))},
			expected: "No se encontraron archivos en src/documentation/ o la respuesta no es válida.",
		},
		{
			name:     "upstream_error",
			repo:     &fakeRepository{listingErr: githubdoc.NewError(githubdoc.KindUpstreamError, errors.New("connection reset"))},
			expected: "Error al listar la documentación de GitHub: connection reset",
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			service := docservice.NewService(testConfiguration("secret"), testCase.repo, nil)
			result := service.GetDocumentation(context.Background(), true)
			require.True(t, result.IsError)
			require.True(t, strings.HasPrefix(result.Text, testCase.expected), "got %q", result.Text)
		})
	}
}

func TestGetDocumentationUpstreamDetailIncludesStatus(t *testing.T) {
	repository := &fakeRepository{listingErr: githubdoc.NewError(githubdoc.KindUpstreamError, &gogithub.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusBadGateway},
		Message:  "Server Error",
	})}
	service := docservice.NewService(testConfiguration("secret"), repository, nil)

	result := service.GetDocumentation(context.Background(), true)
	require.True(t, result.IsError)
	require.True(t, strings.HasPrefix(result.Text, "Error al listar la documentación de GitHub: Server Error\nEstado: 502\nDatos: "), "got %q", result.Text)
	require.Contains(t, result.Text, `"message":"Server Error"`)
}

func TestGetDocByNameSingleMatchReturnsContent(t *testing.T) {
	testCases := []struct {
		name         string
		query        string
		expectedPath string
	}{
		{name: "stem", query: "button", expectedPath: "buttons/button_default.md"},
		{name: "upper_case", query: "BUTTON", expectedPath: "buttons/button_default.md"},
		{name: "prefix", query: "butt", expectedPath: "buttons/button_default.md"},
		{name: "parent_directory", query: "forms", expectedPath: "forms/input_text.md"},
		{name: "stem_substring", query: "input", expectedPath: "forms/input_text.md"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			repository := &fakeRepository{
				markdown: sampleMarkdown(),
				contents: map[string]string{
					"src/documentation/buttons/button_default.md": "Primary button.\n",
					"src/documentation/forms/input_text.md":       "Text input.",
				},
			}
			service := docservice.NewService(testConfiguration("secret"), repository, nil)

			result := service.GetDocByName(context.Background(), testCase.query)
			require.False(t, result.IsError)
			fullPath := config.DefaultDocumentationRoot + testCase.expectedPath
			require.Equal(t, "# "+testCase.expectedPath+"\n\n"+repository.contents[fullPath], result.Text)
			require.Equal(t, []string{fullPath}, repository.fetchedPaths)
			require.Equal(t, []string{"main"}, repository.fetchedRefs)
		})
	}
}

func TestGetDocByNameMultipleMatchesListsPathsWithoutFetching(t *testing.T) {
	repository := &fakeRepository{markdown: sampleMarkdown()}
	service := docservice.NewService(testConfiguration("secret"), repository, nil)

	result := service.GetDocByName(context.Background(), "t")
	require.False(t, result.IsError)
	require.Equal(t, "Se encontraron varias coincidencias para 't':\n- buttons/button_default.md\n- forms/input_text.md", result.Text)
	require.Empty(t, repository.fetchedPaths)
}

func TestGetDocByNameNoMatch(t *testing.T) {
	repository := &fakeRepository{markdown: sampleMarkdown()}
	service := docservice.NewService(testConfiguration("secret"), repository, nil)

	result := service.GetDocByName(context.Background(), "modal")
	require.True(t, result.IsError)
	require.Equal(t, "No se encontró documentación para 'modal'.", result.Text)
	require.Empty(t, repository.fetchedPaths)
}

func TestGetDocByNameRejectsEmptyName(t *testing.T) {
	repository := &fakeRepository{}
	service := docservice.NewService(testConfiguration("secret"), repository, nil)

	result := service.GetDocByName(context.Background(), "")
	require.True(t, result.IsError)
	require.Equal(t, "Error: el parámetro 'name' es obligatorio.", result.Text)
	require.Empty(t, repository.calls)
}

func TestGetDocByNameMatchesWhitespaceQuery(t *testing.T) {
	repository := &fakeRepository{markdown: sampleMarkdown()}
	service := docservice.NewService(testConfiguration("secret"), repository, nil)

	result := service.GetDocByName(context.Background(), " ")
	require.True(t, result.IsError)
	require.Equal(t, "No se encontró documentación para ' '.", result.Text)
	require.Equal(t, []string{"ResolveTreeID", "ListMarkdownFiles"}, repository.calls)
}

func TestGetDocByNameReportsFailures(t *testing.T) {
	testCases := []struct {
		name     string
		repo     *fakeRepository
		expected string
	}{
		{
			name:     "branch_not_found",
			repo:     &fakeRepository{treeErr: githubdoc.NewError(githubdoc.KindRepoOrBranchNotFound, errors.New("lookup failed"))},
			expected: "No se encontró el repo o la rama: https://github.com/acme/ui branch: main\nDetalles: lookup failed",
		},
		{
			name: "content_unavailable",
			repo: &fakeRepository{
				markdown:   sampleMarkdown(),
				contentErr: githubdoc.NewError(githubdoc.KindContentUnavailable, errors.New("no content")),
			},
			expected: "No se pudo obtener el contenido de 'forms/input_text.md'.",
		},
		{
			name:     "listing_unavailable",
			repo:     &fakeRepository{markdownErr: githubdoc.NewError(githubdoc.KindListingUnavailable, errors.New("no tree"))},
			expected: "No se encontraron archivos en src/documentation/ o la respuesta no es válida.",
		},
		{
			name:     "listing_failed",
			repo:     &fakeRepository{markdownErr: githubdoc.NewError(githubdoc.KindUpstreamError, errors.New("timeout"))},
			expected: "Error al buscar la documentación: timeout",
		},
		{
			name: "fetch_failed",
			repo: &fakeRepository{
				markdown:   sampleMarkdown(),
				contentErr: githubdoc.NewError(githubdoc.KindUpstreamError, errors.New("timeout")),
			},
			expected: "Error al buscar la documentación: timeout",
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			service := docservice.NewService(testConfiguration("secret"), testCase.repo, nil)
			result := service.GetDocByName(context.Background(), "input")
			require.True(t, result.IsError)
			require.Equal(t, testCase.expected, result.Text)
		})
	}
}
