package main

import (
	"fmt"
	"os"

	"loadsplit/config"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var (
	envFile  string
	flags    *config.Flags
	settings config.Settings
)

// rootCmd runs the autosplitter when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "loadsplit",
	Short: "Load remover for Post Mouse driving LiveSplit.",
	Long: `loadsplit attaches to the game, locates the world pointer by ` +
		`signature and pauses LiveSplit game time while the game is loading.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
	RunE:              runAutosplitter,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with LOADSPLIT_* settings")
	flags = config.BindFlags(rootCmd.PersistentFlags(), config.Default())
}

// loadSettings layers defaults, the .env file, the environment and flags
func loadSettings(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	settings = config.Default()
	if err := settings.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	if err := flags.Apply(&settings); err != nil {
		return err
	}
	return settings.Validate()
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
