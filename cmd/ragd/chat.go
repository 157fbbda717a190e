package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/ragd/internal/domain"
	logpkg "github.com/kailas-cloud/ragd/internal/logger"
	chatuc "github.com/kailas-cloud/ragd/internal/usecase/chat"
)

var (
	chatTopK            int
	chatMaxContextChars int
	chatJSON            bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask a question over the indexed documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().IntVarP(&chatTopK, "top-k", "k", 0, "chunks to retrieve (default from config)")
	chatCmd.Flags().IntVar(&chatMaxContextChars, "max-context-chars", 0, "context budget in characters (default from config)")
	chatCmd.Flags().BoolVar(&chatJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	ctx = logpkg.WithRequestID(ctx, a.logger, uuid.NewString())
	ans, err := a.chat.Ask(ctx, chatuc.Request{
		Question:        strings.Join(args, " "),
		TopK:            chatTopK,
		MaxContextChars: chatMaxContextChars,
	})
	var blocked *domain.GuardrailBlockedError
	if errors.As(err, &blocked) {
		cmd.Println("Question blocked by guardrail:")
		cmd.Println(blocked.Text)
		return nil
	}
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	if chatJSON {
		data, err := json.MarshalIndent(ans, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(ans.Answer)
	if len(ans.Citations) == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, c := range ans.Citations {
		title := c.DocID
		if c.Title != nil {
			title = *c.Title
		}
		cmd.Printf("  [%d] %s (%s, score %.3f)\n", i+1, title, c.ChunkID, c.Score)
	}
	return nil
}
