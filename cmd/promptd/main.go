package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manifoldco/promptui"

	"promptd/pkg/account"
	"promptd/pkg/api"
	"promptd/pkg/config"
)

func main() {
	args := os.Args[1:]
	mode := "serve"
	if len(args) > 0 && args[0] == "repl" {
		mode = "repl"
		args = args[1:]
	}

	switch mode {
	case "serve":
		serve(args)
	case "repl":
		repl(args)
	}
}

func serve(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "promptd.toml", "path to the configuration file")
	fs.Parse(args)

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	store := account.NewPGStore(pool)
	broker := account.NewBroker(store, cfg.Providers)
	server := api.NewServer(cfg, store, broker, &api.HeaderAuthenticator{})

	addr := cfg.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	slog.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		log.Fatal(err)
	}
}

// repl is a terminal front to a running promptd: each line goes to the
// streaming endpoint and chunks are printed as they arrive.
func repl(args []string) {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8080", "base URL of the promptd server")
	user := fs.String("user", "", "user id to prompt as")
	fs.Parse(args)

	if *user == "" {
		log.Fatal("repl requires -user")
	}

	ctx := context.Background()
	client := api.NewClient(*addr, api.WithHeader("X-User-Id", *user))

	p := promptui.Prompt{
		Label: "> ",
	}

	for {
		line, err := p.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrInterrupt) {
				break
			}
			log.Fatal(err)
		}
		if line == "\\q" {
			break
		}
		printed := false
		for chunk, err := range client.PromptStream(ctx, line) {
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				break
			}
			fmt.Print(chunk)
			printed = true
		}
		if printed {
			fmt.Println()
		}
	}
}
