package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/locallink/backend/internal/config"
)

var configPath string

var (
	// Styles
	botStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	intentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

var rootCmd = &cobra.Command{
	Use:   "chatcli",
	Short: "Talk to the LocalLink assistant from a terminal",
	Long: `chatcli drives the LocalLink assistant without the web frontend.

  chatcli chat                    # interactive conversation
  chatcli classify "sell cakes"   # print the detected intent
  chatcli migrate                 # apply listing migrations`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("LOCALLINK_CONFIG"), "Path to YAML config file")
	rootCmd.AddCommand(newChatCmd(), newClassifyCmd(), newMigrateCmd())
}

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	return config.Load(configPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
