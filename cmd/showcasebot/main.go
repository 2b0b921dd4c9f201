package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/subtools/showcasebot/internal/config"
	"github.com/subtools/showcasebot/internal/daemon"
	"github.com/subtools/showcasebot/internal/reddit"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "showcasebot",
	Short: "showcasebot - enforces author comments on flaired posts",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the moderation daemon",
	RunE:  runRun,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE:  runInit,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check config and credentials",
	RunE:  runStatus,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to config file")
	rootCmd.AddCommand(runCmd, initCmd, statusCmd)
}

func main() {
	godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}
	err = d.Run(context.Background())
	if reddit.IsFatal(err) {
		log.Printf("[showcasebot] bot credentials are missing required oauth scopes; grant: %s",
			strings.Join(reddit.RequiredScopes, ","))
	}
	return err
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefault(configPath); err != nil {
		return err
	}
	fmt.Printf("wrote default config to %s\n", configPath)
	fmt.Println("fill in subreddit, flair, and reddit.accessToken before running")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := reddit.NewClient(reddit.Options{
		UserAgent:   cfg.Reddit.UserAgent,
		AccessToken: cfg.Reddit.AccessToken,
		BaseURL:     cfg.Reddit.BaseURL,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	me, err := client.Me(ctx)
	if err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}

	fmt.Printf("identity:   u/%s\n", me.Name)
	fmt.Printf("subreddit:  r/%s\n", cfg.Subreddit)
	fmt.Printf("flair:      %q\n", cfg.Flair)
	fmt.Printf("warn after: %s, remove after: %s\n", cfg.WarnDelay(), cfg.RemoveDelay())
	fmt.Printf("telegram:   %v, heartbeat: %v, metrics: %q\n",
		cfg.Telegram.Enabled, cfg.Heartbeat.Enabled, cfg.MetricsListen)
	return nil
}
