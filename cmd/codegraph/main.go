package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/codegraph-dev/codegraph"
)

var (
	flagDB      string
	flagFormat  string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "codegraph",
	Short:         "Typed code property graph with a purpose-built query language",
	Long:          "Codegraph stores code structure as a typed graph in SQLite and answers MUQL queries over it: tabular selects, recursive traversals, path search, and built-in analyses.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		format := viper.GetString("format")
		if format != "table" && format != "json" {
			return fmt.Errorf("invalid format %q (want table or json)", format)
		}
		return nil
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: codegraph.db)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "output format: table|json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(tablesCmd)
}

// loadConfig layers configuration: defaults, then an optional
// .codegraph.yaml in the working directory, then CODEGRAPH_* env vars,
// then explicit flags.
func loadConfig() error {
	viper.SetDefault("db", "codegraph.db")
	viper.SetDefault("format", "table")

	viper.SetConfigName(".codegraph")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	viper.SetEnvPrefix("codegraph")
	viper.AutomaticEnv()

	if flagDB != "" {
		viper.Set("db", flagDB)
	}
	if flagFormat != "" {
		viper.Set("format", flagFormat)
	}
	return nil
}

// openEngine opens the configured database, with debug logging when
// --verbose is set.
func openEngine() (*codegraph.Engine, error) {
	var opts []codegraph.Option
	if flagVerbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("building logger: %w", err)
		}
		opts = append(opts, codegraph.WithLogger(logger))
	}
	return codegraph.New(viper.GetString("db"), opts...)
}

var queryCmd = &cobra.Command{
	Use:   "query <muql>",
	Short: "Run one MUQL query",
	Long: `Run one MUQL query against the graph database.

Verbose and terse dialects are both accepted:

  codegraph query "SELECT name, complexity FROM functions WHERE complexity > 20"
  codegraph query "fn c>20"
  codegraph query "SHOW DEPENDENCIES OF app DEPTH 3"
  codegraph query "ANALYZE circular"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.Execute(strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show graph size by node and edge kind",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		stats, err := e.Stats()
		if err != nil {
			return err
		}
		return printStats(cmd.OutOrStdout(), stats)
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the queryable entity tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.Execute("DESCRIBE TABLES")
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}
