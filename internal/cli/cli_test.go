package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/docmcp/internal/config"
	"github.com/temirov/docmcp/internal/services/docservice"
	"github.com/temirov/docmcp/internal/services/mcp"
	"github.com/temirov/docmcp/internal/tokenizer"
)

const (
	sampleTree     = "documentation/ 📁\n├── buttons/ 📁\n    ├── button_default.md 🧩\n└── forms/ 📁\n    └── input_text.md 🧩"
	sampleDocument = "# buttons/button_default.md\n\nBotón primario."
	noMatchText    = "No se encontró documentación para 'modal'."
)

type stubService struct {
	mutex      sync.Mutex
	recursive  []bool
	queries    []string
	treeResult docservice.Result
}

func (service *stubService) GetDocumentation(_ context.Context, recursive bool) docservice.Result {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	service.recursive = append(service.recursive, recursive)
	if service.treeResult.Text != "" {
		return service.treeResult
	}
	return docservice.Result{Text: sampleTree}
}

func (service *stubService) GetDocByName(_ context.Context, name string) docservice.Result {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	service.queries = append(service.queries, name)
	if name == "button" {
		return docservice.Result{Text: sampleDocument}
	}
	return docservice.Result{Text: fmt.Sprintf("No se encontró documentación para '%s'.", name), IsError: true}
}

func (service *stubService) recorded() ([]bool, []string) {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	return append([]bool(nil), service.recursive...), append([]string(nil), service.queries...)
}

type stubClipboard struct {
	copied []string
	err    error
}

func (copier *stubClipboard) Copy(text string) error {
	copier.copied = append(copier.copied, text)
	return copier.err
}

type stubCounter struct{}

func (stubCounter) Name() string { return "stub" }

func (stubCounter) CountString(input string) (int, error) { return len([]rune(input)), nil }

// syncBuffer guards a bytes.Buffer shared between a running command and the test.
type syncBuffer struct {
	mutex  sync.Mutex
	buffer bytes.Buffer
}

func (buffer *syncBuffer) Write(data []byte) (int, error) {
	buffer.mutex.Lock()
	defer buffer.mutex.Unlock()
	return buffer.buffer.Write(data)
}

func (buffer *syncBuffer) String() string {
	buffer.mutex.Lock()
	defer buffer.mutex.Unlock()
	return buffer.buffer.String()
}

type commandHarness struct {
	service       *stubService
	clipboard     *stubClipboard
	input         io.Reader
	configuration config.ApplicationConfiguration
	built         int
}

func newCommandHarness(t *testing.T) *commandHarness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvToken, "secret")
	t.Setenv(config.EnvOwner, "acme")
	t.Setenv(config.EnvRepositoryName, "ui")
	t.Setenv(config.EnvBranch, "main")
	t.Setenv(config.EnvAPIBaseURL, "")
	t.Setenv(config.EnvDocumentationRoot, "")
	return &commandHarness{service: &stubService{}, clipboard: &stubClipboard{}, input: strings.NewReader("")}
}

func (harness *commandHarness) run(ctx context.Context, stdout io.Writer, stderr io.Writer, arguments ...string) error {
	rootCommand := createRootCommand(dependencies{
		logger:    zap.NewNop(),
		input:     harness.input,
		clipboard: harness.clipboard,
		newService: func(configuration config.ApplicationConfiguration, _ *zap.Logger) (mcp.DocumentationService, error) {
			harness.configuration = configuration
			harness.built++
			return harness.service, nil
		},
		newCounter: func(configuration tokenizer.Config) (tokenizer.Counter, string, error) {
			return stubCounter{}, configuration.Model, nil
		},
	})
	rootCommand.SetOut(stdout)
	rootCommand.SetErr(stderr)
	rootCommand.SetArgs(normalizeCopyFlagArguments(arguments))
	return rootCommand.ExecuteContext(ctx)
}

func TestTreeCommandPrintsAndCopiesTree(t *testing.T) {
	harness := newCommandHarness(t)
	var stdout, stderr bytes.Buffer

	err := harness.run(context.Background(), &stdout, &stderr, "tree", "--recursive", "--copy")
	require.NoError(t, err)
	require.Equal(t, sampleTree+"\n", stdout.String())
	require.Equal(t, []string{sampleTree + "\n"}, harness.clipboard.copied)
	require.Equal(t, []bool{true}, harness.service.recursive)
	require.Equal(t, "acme", harness.configuration.Repository.Owner)
	require.Equal(t, config.DefaultDocumentationRoot, harness.configuration.Repository.DocumentationRoot)
}

func TestTreeCommandDefaultsToNonRecursive(t *testing.T) {
	harness := newCommandHarness(t)
	var stdout, stderr bytes.Buffer

	require.NoError(t, harness.run(context.Background(), &stdout, &stderr, "t"))
	require.Equal(t, []bool{false}, harness.service.recursive)
	require.Empty(t, harness.clipboard.copied)
}

func TestTreeCommandReportsClipboardFailure(t *testing.T) {
	harness := newCommandHarness(t)
	harness.clipboard.err = errors.New("no display")
	var stdout, stderr bytes.Buffer

	err := harness.run(context.Background(), &stdout, &stderr, "tree", "--copy")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no display")
}

func TestDocCommandOutcomes(t *testing.T) {
	testCases := []struct {
		name           string
		arguments      []string
		expectError    bool
		expectedStdout string
		expectedStderr string
	}{
		{
			name:           "single_match",
			arguments:      []string{"doc", "button"},
			expectedStdout: sampleDocument + "\n",
		},
		{
			name:           "token_estimate",
			arguments:      []string{"doc", "button", "--tokens", "--model", "stub-model"},
			expectedStdout: sampleDocument + "\n",
			expectedStderr: fmt.Sprintf("Tokens (stub-model): %d\n", len([]rune(sampleDocument))),
		},
		{
			name:           "no_match",
			arguments:      []string{"doc", "modal", "--tokens"},
			expectError:    true,
			expectedStderr: noMatchText + "\n",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			harness := newCommandHarness(t)
			var stdout, stderr bytes.Buffer

			err := harness.run(context.Background(), &stdout, &stderr, testCase.arguments...)
			if testCase.expectError {
				require.ErrorIs(t, err, ErrToolResult)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, testCase.expectedStdout, stdout.String())
			require.Equal(t, testCase.expectedStderr, stderr.String())
		})
	}
}

func TestDocCommandRequiresName(t *testing.T) {
	harness := newCommandHarness(t)
	var stdout, stderr bytes.Buffer

	require.Error(t, harness.run(context.Background(), &stdout, &stderr, "doc"))
	require.Zero(t, harness.built)
}

func TestCommandsRejectIncompleteCoordinates(t *testing.T) {
	harness := newCommandHarness(t)
	t.Setenv(config.EnvBranch, "")
	var stdout, stderr bytes.Buffer

	err := harness.run(context.Background(), &stdout, &stderr, "tree")
	require.ErrorIs(t, err, config.ErrMissingCoordinates)
	require.Zero(t, harness.built)
}

func waitForOutput(t *testing.T, buffer *syncBuffer, marker string) string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		output := buffer.String()
		for _, line := range strings.Split(output, "\n") {
			if strings.Contains(line, marker) {
				return line
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("output did not contain %q: %s", marker, buffer.String())
	return ""
}

func TestHTTPCommandServesDocumentationCommands(t *testing.T) {
	harness := newCommandHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- harness.run(ctx, &stdout, &stderr, "http", "--address", "127.0.0.1:0")
	}()
	address := strings.TrimPrefix(waitForOutput(t, &stdout, "MCP server listening on "), "MCP server listening on ")

	client := http.Client{Timeout: 2 * time.Second}
	post := func(command string, body string) (int, map[string]any) {
		response, err := client.Post("http://"+address+"/commands/"+command, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer response.Body.Close()
		var decoded map[string]any
		require.NoError(t, json.NewDecoder(response.Body).Decode(&decoded))
		return response.StatusCode, decoded
	}

	status, body := post(docservice.ToolGetDocByName, `{"name":"button"}`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, sampleDocument, body["output"])
	require.Equal(t, mcp.FormatRaw, body["format"])
	require.Equal(t, false, body["isError"])

	status, body = post(docservice.ToolGetDocByName, `{"name":"modal"}`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, noMatchText, body["output"])
	require.Equal(t, true, body["isError"])

	status, body = post(docservice.ToolGetDocumentation, `{"recursive":true}`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, sampleTree, body["output"])

	status, _ = post(docservice.ToolGetDocumentation, `{"recursive":`)
	require.Equal(t, http.StatusBadRequest, status)

	status, body = post("content", `{}`)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "command not found", body["error"])

	recursive, _ := harness.service.recorded()
	require.Equal(t, []bool{true}, recursive)

	cancel()
	require.NoError(t, <-done)
}

func TestServeCommandAnswersToolCallsOverStdio(t *testing.T) {
	harness := newCommandHarness(t)
	inputReader, inputWriter := io.Pipe()
	harness.input = inputReader

	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- harness.run(context.Background(), &stdout, &stderr, "serve")
	}()

	messages := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"cli-test","version":"1.0.0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_doc_by_name","arguments":{"name":"button"}}}`,
	}
	go func() {
		for _, message := range messages {
			_, _ = io.WriteString(inputWriter, message+"\n")
		}
	}()

	line := waitForOutput(t, &stdout, `"id":2`)
	var response struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(line), &response))
	require.Len(t, response.Result.Content, 1)
	require.Equal(t, "text", response.Result.Content[0].Type)
	require.Equal(t, sampleDocument, response.Result.Content[0].Text)
	require.False(t, response.Result.IsError)

	require.NoError(t, inputWriter.Close())
	require.NoError(t, <-done)
	_, queries := harness.service.recorded()
	require.Equal(t, []string{"button"}, queries)
}

func TestInitCommandWritesTemplate(t *testing.T) {
	homeDirectory := t.TempDir()
	t.Setenv("HOME", homeDirectory)
	t.Setenv("USERPROFILE", homeDirectory)
	var stdout, stderr bytes.Buffer

	rootCommand := createRootCommand(dependencies{})
	rootCommand.SetOut(&stdout)
	rootCommand.SetErr(&stderr)
	rootCommand.SetArgs([]string{"init", "--global"})
	require.NoError(t, rootCommand.Execute())
	require.Contains(t, stdout.String(), "Configuration written to "+homeDirectory)

	rootCommand = createRootCommand(dependencies{})
	rootCommand.SetOut(&stdout)
	rootCommand.SetErr(&stderr)
	rootCommand.SetArgs([]string{"init", "--global"})
	require.Error(t, rootCommand.Execute())
}
