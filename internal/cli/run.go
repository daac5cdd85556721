package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/ctxdump/internal/commands"
	"github.com/temirov/ctxdump/internal/config"
	"github.com/temirov/ctxdump/internal/exclusion"
	"github.com/temirov/ctxdump/internal/output"
	"github.com/temirov/ctxdump/internal/services/clipboard"
	"github.com/temirov/ctxdump/internal/services/stream"
	"github.com/temirov/ctxdump/internal/tokenizer"
	"github.com/temirov/ctxdump/internal/types"
	"github.com/temirov/ctxdump/internal/utils"
)

const (
	downloadsDirectoryName = "Downloads"
	homePrefix             = "~"

	statusStartingMessage = "Starting context generation..."
	copiedNoteFormat      = "Document copied to clipboard (%s)."
	copiedPathFormat      = "%w; copied the output path instead"
	tokenCountErrorFormat = "count tokens of %s: %w"
	tokenSkippedFormat    = "token estimate skipped for %s: binary content"
	loadGitIgnoreFormat   = "load %s: %w"
)

// generateOptions holds the raw root command flags.
type generateOptions struct {
	output            string
	excludeFolders    []string
	excludeFiles      []string
	excludeExtensions []string
	exclusionsFile    string
	gitignore         bool
	naturalSort       bool
	copyDocument      bool
	tokens            bool
	model             string
	progressFormat    string
	configPath        string
	verbose           bool
}

// runSettings is the effective configuration of one run after flags,
// configuration files and defaults have been combined.
type runSettings struct {
	root         string
	outputPath   string
	exclusions   exclusion.Set
	gitignore    bool
	order        commands.SortOrder
	copyDocument bool
	tokens       bool
	model        string
	mode         output.Mode
}

func runGenerate(command *cobra.Command, env environment, options generateOptions, root string) error {
	if options.verbose {
		debugLogger, loggerError := utils.NewLeveledApplicationLogger(zapcore.DebugLevel)
		if loggerError != nil {
			return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
		}
		env.logger = debugLogger
	}

	workingDirectory, workingDirectoryError := env.getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}
	applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: options.configPath,
	})
	if configurationError != nil {
		return configurationError
	}
	settings, settingsError := resolveRunSettings(command, env, options, applicationConfiguration, root)
	if settingsError != nil {
		return settingsError
	}

	absoluteRoot, rootError := stream.ValidateRoot(settings.root)
	if rootError != nil {
		return rootError
	}
	matcher, matcherError := buildMatcher(absoluteRoot, settings)
	if matcherError != nil {
		return matcherError
	}
	env.logger.Debug("starting aggregation",
		zap.String("root", absoluteRoot),
		zap.String("output", settings.outputPath),
		zap.String("order", string(settings.order)),
		zap.Bool("gitignore", settings.gitignore),
		zap.String("progress", string(settings.mode)),
	)

	reporter := output.NewReporter(output.ReporterOptions{
		Mode:   settings.mode,
		Stderr: env.stderr,
		Stdout: env.stdout,
		Width:  output.TerminalWidth(env.stderrFile),
		Logger: env.logger,
		Hooks:  completionHooks(env, settings),
	})
	if settings.mode != output.ModeJSON {
		reporter.Handle(stream.Event{
			Version: stream.SchemaVersion,
			Kind:    stream.EventKindStatus,
			Phase:   stream.PhaseIdle,
			Level:   stream.LevelInfo,
			Message: statusStartingMessage,
		})
	}

	state := stream.RunState{
		Root:       absoluteRoot,
		OutputPath: settings.outputPath,
		Matcher:    matcher,
		Order:      settings.order,
	}
	aggregator := stream.NewAggregator(env.logger)
	ctx := command.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	dispatchError := stream.Dispatch(ctx, func(runContext context.Context, observer stream.Observer) error {
		_, runError := aggregator.Run(runContext, state, observer)
		return runError
	}, reporter)
	flushError := reporter.Flush()
	if dispatchError != nil {
		return dispatchError
	}
	if reporter.Outcome() == stream.PhaseStoppedByUser {
		env.logger.Debug("aggregation stopped", zap.String("output", settings.outputPath))
	}
	return flushError
}

func resolveRunSettings(command *cobra.Command, env environment, options generateOptions, applicationConfiguration config.ApplicationConfiguration, root string) (runSettings, error) {
	flagSet := command.Flags()

	exclusions := applicationConfiguration.Exclusions
	if flagSet.Changed(exclusionsFileFlagName) {
		fileExclusions, loadError := config.LoadExclusionsFile(expandHome(options.exclusionsFile))
		if loadError != nil {
			return runSettings{}, loadError
		}
		exclusions = exclusions.Merge(fileExclusions)
	}
	exclusions = exclusions.Merge(config.ExclusionConfiguration{
		Folders:    resolveList(flagSet, excludeFoldersFlagName, options.excludeFolders, nil),
		Files:      resolveList(flagSet, excludeFilesFlagName, options.excludeFiles, nil),
		Extensions: resolveList(flagSet, excludeExtensionsFlagName, options.excludeExtensions, nil),
	})

	outputPath := resolveString(flagSet, outputFlagName, options.output, applicationConfiguration.Output, "")
	if strings.TrimSpace(outputPath) == "" {
		outputPath = defaultOutputPath()
	}

	progressFormat := resolveString(flagSet, progressFlagName, options.progressFormat, applicationConfiguration.ProgressFormat, string(output.ModeAuto))
	mode, modeError := output.ParseMode(progressFormat)
	if modeError != nil {
		return runSettings{}, modeError
	}

	return runSettings{
		root:         root,
		outputPath:   expandHome(outputPath),
		exclusions:   exclusions.ExclusionSet(),
		gitignore:    resolveBool(flagSet, gitignoreFlagName, options.gitignore, applicationConfiguration.Gitignore, false),
		order:        commands.ParseSortOrder(resolveBool(flagSet, naturalSortFlagName, options.naturalSort, applicationConfiguration.NaturalSort, false)),
		copyDocument: resolveBool(flagSet, copyFlagName, options.copyDocument, applicationConfiguration.Clipboard, false),
		tokens:       resolveBool(flagSet, tokensFlagName, options.tokens, applicationConfiguration.Tokens.Enabled, false),
		model:        resolveString(flagSet, modelFlagName, options.model, applicationConfiguration.Tokens.Model, tokenizer.DefaultModel),
		mode:         output.ResolveMode(mode, env.stderrFile),
	}, nil
}

// buildMatcher layers the root .gitignore over the exclusion set when enabled.
func buildMatcher(absoluteRoot string, settings runSettings) (exclusion.Matcher, error) {
	if !settings.gitignore {
		return settings.exclusions, nil
	}
	gitIgnore, loadError := exclusion.LoadGitIgnore(absoluteRoot)
	if loadError != nil {
		return nil, fmt.Errorf(loadGitIgnoreFormat, exclusion.GitIgnoreFileName, loadError)
	}
	if gitIgnore == nil {
		return settings.exclusions, nil
	}
	return exclusion.Chain{settings.exclusions, gitIgnore}, nil
}

// defaultOutputPath prefers ~/Downloads and falls back to the home directory,
// then to the working directory.
func defaultOutputPath() string {
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil || homeDirectory == "" {
		return types.DefaultOutputFileName
	}
	downloadsDirectory := filepath.Join(homeDirectory, downloadsDirectoryName)
	if info, statError := os.Stat(downloadsDirectory); statError == nil && info.IsDir() {
		return filepath.Join(downloadsDirectory, types.DefaultOutputFileName)
	}
	return filepath.Join(homeDirectory, types.DefaultOutputFileName)
}

func expandHome(path string) string {
	if path != homePrefix && !strings.HasPrefix(path, homePrefix+string(filepath.Separator)) && !strings.HasPrefix(path, homePrefix+"/") {
		return path
	}
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil || homeDirectory == "" {
		return path
	}
	return filepath.Join(homeDirectory, strings.TrimPrefix(path, homePrefix))
}

// completionHooks returns the post-run steps enabled by settings, token
// estimate first so the summary carries it.
func completionHooks(env environment, settings runSettings) []output.CompletionHook {
	var hooks []output.CompletionHook
	if settings.tokens {
		hooks = append(hooks, tokenEstimateHook(env, settings.model))
	}
	if settings.copyDocument {
		hooks = append(hooks, clipboardHook(env))
	}
	return hooks
}

func tokenEstimateHook(env environment, model string) output.CompletionHook {
	return func(summary *types.RunSummary) (string, error) {
		counter, resolvedModel, counterError := env.newCounter(tokenizer.Config{Model: model})
		if counterError != nil {
			return "", counterError
		}
		result, countError := tokenizer.CountFile(counter, summary.OutputPath)
		if countError != nil {
			return "", fmt.Errorf(tokenCountErrorFormat, summary.OutputPath, countError)
		}
		if !result.Counted {
			return fmt.Sprintf(tokenSkippedFormat, summary.OutputPath), nil
		}
		summary.Tokens = result.Tokens
		summary.Model = resolvedModel
		return "", nil
	}
}

// clipboardHook copies the document, or its path when the content cannot be copied.
func clipboardHook(env environment) output.CompletionHook {
	return func(summary *types.RunSummary) (string, error) {
		copyError := clipboard.CopyFile(env.copier, summary.OutputPath)
		if copyError == nil {
			return fmt.Sprintf(copiedNoteFormat, utils.FormatFileSize(summary.BytesWritten)), nil
		}
		if pathError := env.copier.Copy(summary.OutputPath); pathError != nil {
			return "", copyError
		}
		return "", fmt.Errorf(copiedPathFormat, copyError)
	}
}
