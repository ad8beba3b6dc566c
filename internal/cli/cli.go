package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/stagehand/internal/app"
)

// ExitError carries a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// Parse processes command-line arguments over environment defaults. It
// returns the merged config, a boolean indicating a clean early exit (help
// or no manifest), or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	envCfg, err := app.FromEnv()
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("stagehand", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Stagehand - composes stateful components into a running application,
starting and stopping them in dependency order.

Usage:
  stagehand [options] [MANIFEST_PATH]

Arguments:
  MANIFEST_PATH
    Path to a single .hcl manifest or a directory of .hcl manifests.

Options:
`)
		flagSet.PrintDefaults()
	}

	manifestFlag := flagSet.String("manifest", "", "Path to the manifest file or directory.")
	logFormatFlag := flagSet.String("log-format", envCfg.LogFormat, "Log output format: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", envCfg.LogLevel, "Logging level: 'debug', 'info', 'warn', or 'error'.")
	healthPortFlag := flagSet.Int("healthcheck-port", envCfg.HealthcheckPort, "Port for the health/metrics HTTP server. 0 disables it.")
	concurrencyFlag := flagSet.Int("layer-concurrency", envCfg.LayerConcurrency, "Max components driven at once within a layer. 0 is unbounded.")
	startTimeoutFlag := flagSet.Duration("start-timeout", envCfg.StartTimeout, "Default start hook deadline. 0 uses the built-in default.")
	stopTimeoutFlag := flagSet.Duration("stop-timeout", envCfg.StopTimeout, "Default stop hook deadline. 0 uses the built-in default.")
	destroyTimeoutFlag := flagSet.Duration("destroy-timeout", envCfg.DestroyTimeout, "Default destroy hook deadline. 0 uses the built-in default.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := envCfg.ManifestPath
	if *manifestFlag != "" {
		path = *manifestFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cfg, err := app.NewConfig(app.Config{
		ManifestPath:     path,
		LogFormat:        logFormat,
		LogLevel:         logLevel,
		HealthcheckPort:  *healthPortFlag,
		LayerConcurrency: *concurrencyFlag,
		StartTimeout:     *startTimeoutFlag,
		StopTimeout:      *stopTimeoutFlag,
		DestroyTimeout:   *destroyTimeoutFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, false, nil
}
