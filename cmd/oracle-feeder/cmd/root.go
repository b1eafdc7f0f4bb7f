package cmd

import (
	"fmt"
	"io"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"

	logFormatJSON = "json"
	logFormatText = "text"
)

// NewRootCmd creates the root command of the oracle feeder.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "oracle-feeder",
		Short: "Off-chain reporting agent for the PAW price oracle",
		Long: `oracle-feeder fetches a price from the configured sources on every new block
and submits it as an observation for the open oracle round.`,
		SilenceUsage: true,
	}

	addLogFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		startCmd(),
		keysCmd(),
	)

	return rootCmd
}

func addLogFlags(fs *pflag.FlagSet) {
	fs.String(flagLogLevel, zerolog.InfoLevel.String(), "logging level (trace|debug|info|warn|error)")
	fs.String(flagLogFormat, logFormatText, "logging format (text|json)")
}

// getLogger builds the logger selected by the persistent log flags.
func getLogger(cmd *cobra.Command, out io.Writer) (log.Logger, error) {
	levelStr, err := cmd.Flags().GetString(flagLogLevel)
	if err != nil {
		return nil, err
	}
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}

	opts := []log.Option{log.LevelOption(level)}

	format, err := cmd.Flags().GetString(flagLogFormat)
	if err != nil {
		return nil, err
	}
	switch format {
	case logFormatJSON:
		opts = append(opts, log.OutputJSONOption())
	case logFormatText:
		opts = append(opts, log.ColorOption(false))
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return log.NewLogger(out, opts...), nil
}
