package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ihab-ag/baro-ai/internal/command"
	"github.com/ihab-ag/baro-ai/internal/config"
	"github.com/ihab-ag/baro-ai/internal/confirm"
	"github.com/ihab-ag/baro-ai/internal/logger"
	"github.com/ihab-ag/baro-ai/internal/nlu"
	"github.com/ihab-ag/baro-ai/internal/session"
	"github.com/ihab-ag/baro-ai/internal/storage/inmemory"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Chat with the ledger on stdin, data kept in memory",
	RunE:  runRepl,
}

func runRepl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.NewWithLevel("warn")

	sessions := session.NewManager(inmemory.NewStore(), log, session.DefaultTTL)
	resolver := nlu.NewResolver(nlu.NewGeminiOracle(cfg.Gemini.Model), log)
	router := command.NewRouter(sessions, resolver, confirm.NewManager(), log)

	ctx := context.Background()
	fmt.Println("Baro REPL. Type a message, `help` for commands, `exit` to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			break
		}

		result := router.HandleMessage(ctx, command.Request{UserID: "repl", Text: text})
		fmt.Println(result.Text)
		if result.Attachment != nil {
			path := filepath.Join(os.TempDir(), result.Attachment.Filename)
			if err := os.WriteFile(path, result.Attachment.Data, 0o644); err != nil {
				fmt.Printf("(failed to save attachment: %v)\n", err)
			} else {
				fmt.Printf("(attachment saved to %s)\n", path)
			}
		}
	}
	return scanner.Err()
}
