package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "v0.2.1"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "groundcheck",
	Short: "GroundCheck - trust-weighted hallucination detection for AI agents",
	Long: `GroundCheck detects hallucinations in AI-generated text by cross-checking
it against a set of retrieved memories whose reliability is known.

Given a draft response and trust-scored memories it reports which claims
are supported, which contradict the memories, a corrected draft in strict
mode, a confidence score, and whether the user must be warned about
conflicting sources.

GroundCheck checks support against what is stored; it does not decide
what is true.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("groundcheck " + version)
	},
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $HOME/.groundcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves settings with the precedence documented in the config
// command: flags beat GROUNDCHECK_* environment variables, which beat the
// config file, which beats built-in defaults. A missing config file is not
// an error; an explicitly flagged one that fails to load is reported.
func loadConfig() {
	viper.SetEnvPrefix("GROUNDCHECK")
	viper.AutomaticEnv()

	explicit := configPath != ""
	if explicit {
		viper.SetConfigFile(configPath)
	} else {
		for _, dir := range configSearchPath() {
			viper.AddConfigPath(dir)
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	switch {
	case err == nil:
		if verbose {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	case explicit:
		fmt.Fprintf(os.Stderr, "Error reading config %s: %v\n", configPath, err)
	}
}

// configSearchPath lists the directories probed for config.yaml, nearest
// scope first: the working directory, then the user's groundcheck home.
func configSearchPath() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".groundcheck"))
	}
	return dirs
}
