package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/becomeliminal/acc-agent/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "accagent",
	Short: "Conversational agent with a bounded cognitive state",
	Long: `accagent keeps a fixed-size Compressed Cognitive State per session instead
of replaying the transcript. Each turn recalls artifacts, qualifies them,
commits a new state and replies; a background cycle then journals the
exchange, extracts facts and may rewrite the agent's configuration documents.

Example:
  accagent serve --port 8000
  accagent chat --session demo`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .accagent.yaml)")
	flags.String("provider", "", "llm provider: anthropic, openai or gemini")
	flags.String("model", "", "llm model override")
	flags.String("user", "", "user whose settings and memory are used")
	flags.Bool("debug", false, "enable debug logging of oracle calls")
	_ = viper.BindPFlag("llm_provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("llm_model", flags.Lookup("model"))
	_ = viper.BindPFlag("user_name", flags.Lookup("user"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
}

func initConfig() {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error getting working directory:", err)
		os.Exit(1)
	}
	config.Setup(viper.GetViper(), cfgFile, cwd)
}
