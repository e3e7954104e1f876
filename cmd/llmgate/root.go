package main

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/llmgate/config"
	"github.com/hupe1980/llmgate/logging"
)

const defaultConfigPath = "llmgate.toml"

type app struct {
	configPath string
	logLevel   string
	logFormat  string
	verbose    bool

	settings   *config.Settings
	logger     logging.Logger
	httpClient *http.Client
}

func newApp() *app { return &app{} }

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "llmgate",
		Short:         "Multi-vendor LLM streaming gateway",
		Long:          "llmgate streams chat requests to OpenAI, Anthropic, Gemini and OpenAI-compatible endpoints\nand prints one normalized event stream regardless of the vendor.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "settings file (default $LLMGATE_CONFIG or ./"+defaultConfigPath+")")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format override: json, text, tint")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "shorthand for --log-level debug")

	root.AddCommand(newChatCmd(a), newProvidersCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		path = os.Getenv("LLMGATE_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath
	}

	settings, err := config.Load(path)
	if err != nil {
		return err
	}
	a.settings = settings

	logCfg := settings.LoggingConfig()
	logCfg.Output = cmd.ErrOrStderr()
	if a.logLevel != "" {
		logCfg.Level = logging.ParseLevel(a.logLevel)
	}
	if a.verbose {
		logCfg.Level = logging.LogLevelDebug
	}
	if a.logFormat != "" {
		logCfg.Format = a.logFormat
	}
	a.logger = logging.New(logCfg)
	a.logger.Debug("settings loaded", "path", path, "providers", len(settings.Providers))
	return nil
}
