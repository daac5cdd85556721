// Package cli wires the ctxdump command line onto the aggregation service.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ctxdump/internal/config"
	"github.com/temirov/ctxdump/internal/services/clipboard"
	"github.com/temirov/ctxdump/internal/tokenizer"
	"github.com/temirov/ctxdump/internal/utils"
)

const (
	outputFlagName            = "output"
	outputFlagShorthand       = "o"
	excludeFoldersFlagName    = "exclude-folders"
	excludeFilesFlagName      = "exclude-files"
	excludeExtensionsFlagName = "exclude-extensions"
	exclusionsFileFlagName    = "exclusions-file"
	gitignoreFlagName         = "gitignore"
	naturalSortFlagName       = "natural-sort"
	copyFlagName              = "copy"
	tokensFlagName            = "tokens"
	modelFlagName             = "model"
	progressFlagName          = "progress"
	configFlagName            = "config"
	verboseFlagName           = "verbose"
	versionFlagName           = "version"
	globalFlagName            = "global"
	forceFlagName             = "force"

	versionTemplate      = "ctxdump version: %s\n"
	defaultPath          = "."
	rootUse              = "ctxdump [path]"
	rootShortDescription = "aggregate a project into one Markdown context document"
	rootLongDescription  = `ctxdump walks a project directory, skips excluded folders, files and extensions,
and writes a single Markdown document holding the directory tree and the content of every remaining file.
Press Ctrl+C to stop after the current file; the partial document is kept.`
	rootUsageExample = `  # Aggregate the current directory into ~/Downloads/project_context.md
  ctxdump

  # Write next to the project and copy the result to the clipboard
  ctxdump ./service -o service.md --copy

  # Replace the default folder exclusions and honor .gitignore
  ctxdump --exclude-folders vendor,node_modules --gitignore .`

	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = "Write " + utils.ConfigFileName + " with the default settings into the working directory, or into ~/" + utils.GlobalConfigDirectoryName + " with --global."
	initWrittenFormat    = "Configuration written to %s\n"

	defaultsUse              = "defaults"
	defaultsShortDescription = "print the default exclusion lists"
	defaultsLongDescription  = "Print the built-in exclusion lists in the format accepted by --" + exclusionsFileFlagName + "."

	outputFlagDescription            = "output document path (default ~/Downloads/project_context.md, or ~/project_context.md)"
	excludeFoldersFlagDescription    = "excluded folder names, replacing the defaults"
	excludeFilesFlagDescription      = "excluded file names, replacing the defaults"
	excludeExtensionsFlagDescription = "excluded file extensions, replacing the defaults"
	exclusionsFileFlagDescription    = "file with [folders], [files] and [extensions] sections"
	gitignoreFlagDescription         = "also skip entries matched by the root .gitignore"
	naturalSortFlagDescription       = "order names naturally (file2 before file10)"
	copyFlagDescription              = "copy the document to the clipboard when done"
	tokensFlagDescription            = "report a token estimate of the document"
	modelFlagDescription             = "tokenizer model used for the estimate"
	progressFlagDescription          = "progress display: auto, terminal, plain or json"
	configFlagDescription            = "configuration file used instead of ./" + utils.ConfigFileName
	verboseFlagDescription           = "log debug diagnostics"
	versionFlagDescription           = "display application version"
	globalFlagDescription            = "write into the global configuration directory"
	forceFlagDescription             = "overwrite an existing configuration file"

	workingDirectoryErrorFormat = "unable to determine working directory: %w"
)

// environment carries the process level collaborators of the commands.
type environment struct {
	stdout     io.Writer
	stderr     io.Writer
	stderrFile *os.File
	logger     *zap.Logger
	copier     clipboard.Copier
	newCounter func(tokenizer.Config) (tokenizer.Counter, string, error)
	getwd      func() (string, error)
}

func defaultEnvironment(logger *zap.Logger) environment {
	if logger == nil {
		logger = zap.NewNop()
	}
	return environment{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		stderrFile: os.Stderr,
		logger:     logger,
		copier:     clipboard.NewService(),
		newCounter: tokenizer.NewCounter,
		getwd:      os.Getwd,
	}
}

// Execute runs the ctxdump application. SIGINT and SIGTERM stop the run
// between files; a second signal terminates the process.
func Execute(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	rootCommand := createRootCommand(defaultEnvironment(logger))
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func createRootCommand(env environment) *cobra.Command {
	var options generateOptions
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				_, err := fmt.Fprintf(env.stdout, versionTemplate, utils.GetApplicationVersion())
				return err
			}
			root := defaultPath
			if len(arguments) == 1 {
				root = arguments[0]
			}
			return runGenerate(command, env, options, root)
		},
	}
	rootCommand.SetOut(env.stdout)
	rootCommand.SetErr(env.stderr)

	flagSet := rootCommand.Flags()
	flagSet.StringVarP(&options.output, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	flagSet.StringSliceVar(&options.excludeFolders, excludeFoldersFlagName, nil, excludeFoldersFlagDescription)
	flagSet.StringSliceVar(&options.excludeFiles, excludeFilesFlagName, nil, excludeFilesFlagDescription)
	flagSet.StringSliceVar(&options.excludeExtensions, excludeExtensionsFlagName, nil, excludeExtensionsFlagDescription)
	flagSet.StringVar(&options.exclusionsFile, exclusionsFileFlagName, "", exclusionsFileFlagDescription)
	registerBooleanFlag(flagSet, &options.gitignore, gitignoreFlagName, false, gitignoreFlagDescription)
	registerBooleanFlag(flagSet, &options.naturalSort, naturalSortFlagName, false, naturalSortFlagDescription)
	registerBooleanFlag(flagSet, &options.copyDocument, copyFlagName, false, copyFlagDescription)
	registerBooleanFlag(flagSet, &options.tokens, tokensFlagName, false, tokensFlagDescription)
	flagSet.StringVar(&options.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	flagSet.StringVar(&options.progressFormat, progressFlagName, "auto", progressFlagDescription)
	flagSet.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	registerBooleanFlag(flagSet, &options.verbose, verboseFlagName, false, verboseFlagDescription)
	flagSet.BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)

	rootCommand.AddCommand(
		createInitCommand(env),
		createDefaultsCommand(env),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand(env environment) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			workingDirectory, workingDirectoryError := env.getwd()
			if workingDirectoryError != nil {
				return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
			}
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: workingDirectory,
			})
			if initError != nil {
				return initError
			}
			_, err := fmt.Fprintf(env.stdout, initWrittenFormat, path)
			return err
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// createDefaultsCommand returns the defaults subcommand.
func createDefaultsCommand(env environment) *cobra.Command {
	return &cobra.Command{
		Use:   defaultsUse,
		Short: defaultsShortDescription,
		Long:  defaultsLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			_, err := io.WriteString(env.stdout, config.RenderExclusionsFile(config.DefaultConfiguration().Exclusions))
			return err
		},
	}
}
