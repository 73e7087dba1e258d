// Package cmd provides the command-line interface of tvss.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"
)

// envPrefix prefixes the environment variables that set flags.
const envPrefix = "TVSS_"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tvss",
	Short: "tvss simulates TSCH networks scheduled by a traffic-aware Orchestra rule.",
	Long: `tvss simulates TSCH networks scheduled by a traffic-aware ` +
		`Orchestra rule. Flags can also be set with TVSS_* environment ` +
		`variables or in a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := loadEnvFile(envFile); err != nil {
			return err
		}

		return applyEnv(cmd.Flags())
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env",
		"file with TVSS_* variables to load before the flags are read")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	return nil
}

// envName maps a flag name to the variable that sets it, so that
// "send-interval" is set by TVSS_SEND_INTERVAL.
func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// applyEnv sets every flag that was not given on the command line from its
// environment variable.
func applyEnv(flags *pflag.FlagSet) error {
	var err error

	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}

		v, ok := os.LookupEnv(envName(f.Name))
		if !ok {
			return
		}

		if setErr := flags.Set(f.Name, v); setErr != nil {
			err = fmt.Errorf("%s: %w", envName(f.Name), setErr)
		}
	})

	return err
}
