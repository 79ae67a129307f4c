package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akshsgaur/translator-agent/internal/cli"
	"github.com/akshsgaur/translator-agent/internal/config"
	"github.com/akshsgaur/translator-agent/internal/tutor"
)

var (
	version = "0.1.0"
)

func main() {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "tutor",
		Short: "Tutor - Your personal language tutor",
		Long: `Tutor is an AI language tutor that remembers you between sessions.

It can:
  • Translate words and phrases to your target language
  • Teach vocabulary and grammar with examples
  • Generate quick practice exercises
  • Chat with you in a way that builds on past conversations`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configDir != "" {
				config.SetConfigDir(configDir)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return cli.Run(cfg)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"directory holding config.yaml and profile.yaml (default ~/.tutor)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			fmt.Println(cfg.String())

			path, _ := config.ConfigPath()
			fmt.Printf("\nConfig file path: %s\n", path)
			return nil
		},
	}

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the active user profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ProfilePath()
			if err != nil {
				return err
			}
			profile, err := tutor.LoadProfile(path)
			if err != nil {
				return fmt.Errorf("failed to load profile: %w", err)
			}
			fmt.Println(formatProfile(profile))
			fmt.Printf("\nProfile file path: %s\n", path)
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Tutor v%s\n", version)
		},
	}

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func formatProfile(profile tutor.UserProfile) string {
	return fmt.Sprintf(`User Profile:
  User ID: %s
  Display Name: %s
  Target Language: %s
  Created: %s`,
		profile.UserID,
		profile.DisplayName,
		profile.TargetLanguage,
		profile.CreatedAt.Format("2006-01-02"),
	)
}
