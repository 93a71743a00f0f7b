package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Viktor-Uv/chatter/common/environment"
	"github.com/Viktor-Uv/chatter/common/version"
	"github.com/Viktor-Uv/chatter/internal/chatter/app"
	"github.com/Viktor-Uv/chatter/internal/chatter/config"
)

func main() {
	fmt.Printf("Chatter Telegram Bot\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()

	configPath := flag.String("config", environment.StringOr("CHATTER_CONFIG", ""), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	bot, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize Chatter: %v\n", err)
		os.Exit(1)
	}
	defer bot.Stop()

	if err := bot.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running Chatter: %v\n", err)
		os.Exit(1)
	}
}
