// Package cli provides the command line interface.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/docmcp/internal/config"
	"github.com/temirov/docmcp/internal/docs/githubdoc"
	"github.com/temirov/docmcp/internal/services/clipboard"
	"github.com/temirov/docmcp/internal/services/docservice"
	"github.com/temirov/docmcp/internal/services/mcp"
	"github.com/temirov/docmcp/internal/tokenizer"
	"github.com/temirov/docmcp/internal/utils"
)

const (
	versionFlagName      = "version"
	configFlagName       = "config"
	copyFlagName         = "copy"
	recursiveFlagName    = "recursive"
	tokensFlagName       = "tokens"
	modelFlagName        = "model"
	addressFlagName      = "address"
	forceFlagName        = "force"
	globalFlagName       = "global"
	versionTemplate      = "docmcp version: %s\n"
	rootUse              = "docmcp"
	rootShortDescription = "documentation retrieval over MCP"
	rootLongDescription  = `docmcp serves the Markdown documentation stored in a GitHub repository.
It exposes get_documentation and get_doc_by_name over MCP stdio (serve) or HTTP (http),
and offers the same operations directly through tree and doc.`
	versionFlagDescription = "display application version"
	configFlagDescription  = "path to a configuration file (yaml, json, toml or env)"
	serveUse               = "serve"
	httpUse                = "http"
	treeUse                = "tree"
	docCommandName         = "doc"
	docUse                 = docCommandName + " <name>"
	initUse                = "init"
	treeAlias              = "t"
	docAlias               = "d"
	serveShortDescription  = "serve the documentation tools over MCP stdio"
	httpShortDescription   = "serve the documentation tools over HTTP"
	treeShortDescription   = "render the documentation tree (" + treeAlias + ")"
	docShortDescription    = "print the documentation of a component (" + docAlias + ")"
	initShortDescription   = "write a configuration template"

	// treeUsageExample demonstrates tree command usage.
	treeUsageExample = `  # Render every folder below the documentation root
  docmcp tree --recursive

  # Render and copy the result to the clipboard
  docmcp tree --recursive --copy`
	// docUsageExample demonstrates doc command usage.
	docUsageExample = `  # Print the button documentation
  docmcp doc button

  # Print it together with a gpt-4o token estimate
  docmcp doc button --tokens`

	recursiveFlagDescription = "walk every subdirectory of the documentation root"
	copyFlagDescription      = "copy the output to the system clipboard"
	tokensFlagDescription    = "report the token count of the fetched document"
	modelFlagDescription     = "tokenizer model to use for token counting"
	addressFlagDescription   = "listen address for the HTTP server"
	forceFlagDescription     = "overwrite an existing configuration file"
	globalFlagDescription    = "write the configuration under the home directory instead of the working directory"
	defaultTokenizerModel    = "gpt-4o"
	defaultHTTPAddress       = "127.0.0.1:0"

	listeningMessageFormat         = "MCP server listening on %s\n"
	tokenCountFormat               = "Tokens (%s): %d\n"
	tokenCountSkippedMessage       = "Tokens: not counted\n"
	configurationWrittenFormat     = "Configuration written to %s\n"
	workingDirectoryErrorFormat    = "unable to determine working directory: %w"
	clipboardCopyErrorFormat       = "copy to clipboard: %w"
	clipboardServiceMissingMessage = "clipboard service is not configured"
	logFieldCommand                = "command"
	logFieldAddress                = "address"
)

// ErrToolResult reports that a command printed a tool error result to stderr.
var ErrToolResult = errors.New("the documentation tool reported an error")

// serviceFactory builds the documentation service for a loaded configuration.
type serviceFactory func(configuration config.ApplicationConfiguration, logger *zap.Logger) (mcp.DocumentationService, error)

// counterFactory builds a token counter for the --tokens flag.
type counterFactory func(configuration tokenizer.Config) (tokenizer.Counter, string, error)

type dependencies struct {
	logger     *zap.Logger
	input      io.Reader
	clipboard  clipboard.Copier
	newService serviceFactory
	newCounter counterFactory
}

// Execute runs the docmcp application.
func Execute(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCommand := createRootCommand(dependencies{
		logger:     logger,
		input:      os.Stdin,
		clipboard:  clipboard.NewService(),
		newService: newDocumentationService,
		newCounter: tokenizer.NewCounter,
	})
	rootCommand.SetArgs(normalizeCopyFlagArguments(os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

func newDocumentationService(configuration config.ApplicationConfiguration, logger *zap.Logger) (mcp.DocumentationService, error) {
	githubClient, err := githubdoc.NewGitHubClient(configuration.Token, configuration.APIBaseURL)
	if err != nil {
		return nil, err
	}
	repository := githubdoc.NewClient(githubClient, configuration.Repository)
	return docservice.NewService(configuration, repository, logger), nil
}

// createRootCommand builds the root Cobra command.
func createRootCommand(deps dependencies) *cobra.Command {
	if deps.logger == nil {
		deps.logger = zap.NewNop()
	}
	var showVersion bool
	var configurationPath string

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&configurationPath, configFlagName, "", configFlagDescription)

	loadService := func(command *cobra.Command) (mcp.DocumentationService, error) {
		configuration, err := loadConfiguration(configurationPath)
		if err != nil {
			return nil, err
		}
		return deps.newService(configuration, deps.logger.With(zap.String(logFieldCommand, command.Name())))
	}

	rootCommand.AddCommand(
		createServeCommand(deps, loadService),
		createHTTPCommand(deps, loadService),
		createTreeCommand(deps, loadService),
		createDocCommand(deps, loadService),
		createInitCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

func loadConfiguration(configurationPath string) (config.ApplicationConfiguration, error) {
	workingDirectory, err := os.Getwd()
	if err != nil {
		return config.ApplicationConfiguration{}, fmt.Errorf(workingDirectoryErrorFormat, err)
	}
	configuration, err := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: configurationPath,
	})
	if err != nil {
		return config.ApplicationConfiguration{}, err
	}
	if err := configuration.Validate(); err != nil {
		return config.ApplicationConfiguration{}, err
	}
	return configuration, nil
}

type serviceLoader func(command *cobra.Command) (mcp.DocumentationService, error)

func createServeCommand(deps dependencies, loadService serviceLoader) *cobra.Command {
	return &cobra.Command{
		Use:   serveUse,
		Short: serveShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			service, err := loadService(command)
			if err != nil {
				return err
			}
			toolServer := mcp.NewToolServer(service, utils.ServerVersion())
			deps.logger.Info("serving documentation tools over stdio", zap.String("server", mcp.ServerName))
			return mcp.ServeStdio(command.Context(), toolServer, deps.input, command.OutOrStdout(), deps.logger)
		},
	}
}

func createHTTPCommand(deps dependencies, loadService serviceLoader) *cobra.Command {
	var address string
	httpCommand := &cobra.Command{
		Use:   httpUse,
		Short: httpShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			service, err := loadService(command)
			if err != nil {
				return err
			}
			server := mcp.NewServer(mcp.Config{
				Address:      address,
				Capabilities: mcp.Capabilities(),
				Executors:    mcpCommandExecutors(service),
			})
			return server.Run(command.Context(), func(boundAddress string) {
				deps.logger.Info("http transport started", zap.String(logFieldAddress, boundAddress))
				fmt.Fprintf(command.OutOrStdout(), listeningMessageFormat, boundAddress)
			})
		},
	}
	httpCommand.Flags().StringVar(&address, addressFlagName, defaultHTTPAddress, addressFlagDescription)
	return httpCommand
}

func createTreeCommand(deps dependencies, loadService serviceLoader) *cobra.Command {
	var recursive bool
	var copyEnabled bool
	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Example: treeUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			service, err := loadService(command)
			if err != nil {
				return err
			}
			result := service.GetDocumentation(command.Context(), recursive)
			return writeResult(command, result, copyEnabled, deps.clipboard)
		},
	}
	treeCommand.Flags().BoolVar(&recursive, recursiveFlagName, false, recursiveFlagDescription)
	registerCopyFlag(treeCommand.Flags(), &copyEnabled)
	return treeCommand
}

func createDocCommand(deps dependencies, loadService serviceLoader) *cobra.Command {
	var copyEnabled bool
	var tokensEnabled bool
	var tokenModel string
	docCommand := &cobra.Command{
		Use:     docUse,
		Aliases: []string{docAlias},
		Short:   docShortDescription,
		Example: docUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			service, err := loadService(command)
			if err != nil {
				return err
			}
			result := service.GetDocByName(command.Context(), arguments[0])
			if err := writeResult(command, result, copyEnabled, deps.clipboard); err != nil {
				return err
			}
			if tokensEnabled {
				return reportTokens(command.ErrOrStderr(), deps.newCounter, tokenModel, result.Text)
			}
			return nil
		},
	}
	registerCopyFlag(docCommand.Flags(), &copyEnabled)
	docCommand.Flags().BoolVar(&tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	docCommand.Flags().StringVar(&tokenModel, modelFlagName, defaultTokenizerModel, modelFlagDescription)
	return docCommand
}

func createInitCommand() *cobra.Command {
	var force bool
	var global bool
	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			workingDirectory, err := os.Getwd()
			if err != nil {
				return fmt.Errorf(workingDirectoryErrorFormat, err)
			}
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, err := config.InitializeConfiguration(config.InitOptions{
				WorkingDirectory: workingDirectory,
				Target:           target,
				Force:            force,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(command.OutOrStdout(), configurationWrittenFormat, path)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	initCommand.Flags().BoolVar(&global, globalFlagName, false, globalFlagDescription)
	return initCommand
}

// writeResult prints a successful result to stdout, optionally mirroring it to
// the clipboard, and prints a failed result to stderr.
func writeResult(command *cobra.Command, result docservice.Result, copyEnabled bool, copier clipboard.Copier) error {
	if result.IsError {
		fmt.Fprintln(command.ErrOrStderr(), result.Text)
		return ErrToolResult
	}
	outputWriter := command.OutOrStdout()
	var clipboardBuffer *bytes.Buffer
	if copyEnabled {
		if copier == nil {
			return errors.New(clipboardServiceMissingMessage)
		}
		clipboardBuffer = &bytes.Buffer{}
		outputWriter = io.MultiWriter(outputWriter, clipboardBuffer)
	}
	if _, err := fmt.Fprintln(outputWriter, result.Text); err != nil {
		return err
	}
	if clipboardBuffer != nil {
		if err := copier.Copy(clipboardBuffer.String()); err != nil {
			return fmt.Errorf(clipboardCopyErrorFormat, err)
		}
	}
	return nil
}

func reportTokens(writer io.Writer, newCounter counterFactory, model string, text string) error {
	counter, resolvedModel, err := newCounter(tokenizer.Config{Model: model})
	if err != nil {
		return err
	}
	countResult, err := tokenizer.CountBytes(counter, []byte(text))
	if err != nil {
		return err
	}
	if !countResult.Counted {
		_, err = fmt.Fprint(writer, tokenCountSkippedMessage)
		return err
	}
	_, err = fmt.Fprintf(writer, tokenCountFormat, resolvedModel, countResult.Tokens)
	return err
}
