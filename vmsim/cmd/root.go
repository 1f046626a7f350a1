// Package cmd provides the command-line interface of vmsim.
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
)

const envPrefix = "VMSIM_"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vmsim",
	Short: "vmsim runs workloads against a demand-paged virtual memory manager.",
	Long: `vmsim runs synthetic processes against a demand-paged virtual ` +
		`memory manager with a small frame pool, a swap device, and ` +
		`memory-mapped files. Flags that are not given on the command line ` +
		`are read from VMSIM_* environment variables, which can be set in a ` +
		`.env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")

		err := loadEnvFile(envFile)
		if err != nil {
			return err
		}

		return applyEnv(cmd.Flags(), os.LookupEnv)
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env",
		"File to read VMSIM_* defaults from.")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// loadEnvFile adds the variables of the file to the environment. Variables
// that are already set are kept. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// envName returns the environment variable that sets a flag.
func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// applyEnv sets the flags that are not given on the command line from the
// environment.
func applyEnv(
	flags *pflag.FlagSet,
	lookup func(string) (string, bool),
) error {
	var errs []error

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}

		value, ok := lookup(envName(f.Name))
		if !ok {
			return
		}

		err := flags.Set(f.Name, value)
		if err != nil {
			errs = append(errs,
				fmt.Errorf("%s=%q: %w", envName(f.Name), value, err))
		}
	})

	return errors.Join(errs...)
}
