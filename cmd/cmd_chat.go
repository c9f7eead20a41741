package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davidbz/omnichat/internal/domain"
)

func init() {
	chatCmd.Flags().StringVarP(&chatFlags.provider, "provider", "p", "openai", "provider identity")
	chatCmd.Flags().StringVarP(&chatFlags.model, "model", "m", "gpt-4o-mini", "model identifier passed to the provider")
	chatCmd.Flags().StringVarP(&chatFlags.system, "system", "s", "", "optional system prompt")
	chatCmd.Flags().IntVar(&chatFlags.maxTokens, "max-tokens", 0, "output token cap (0 keeps the provider default)")
	chatCmd.Flags().Float64Var(&chatFlags.temperature, "temperature", -1, "sampling temperature (negative keeps the provider default)")
	chatCmd.Flags().BoolVar(&chatFlags.buffered, "no-stream", false, "wait for the full reply instead of streaming")

	rootCmd.AddCommand(chatCmd)
}

//nolint:gochecknoglobals // cobra flag bindings
var chatFlags struct {
	provider    string
	model       string
	system      string
	maxTokens   int
	temperature float64
	buffered    bool
}

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message and print the reply",
	Args:  cobra.ExactArgs(1),
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	container, err := buildContainer()
	if err != nil {
		return err
	}

	return container.Invoke(func(gateway *domain.GatewayService, credentials domain.CredentialStore, logger *zap.Logger) error {
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		req, err := buildChatRequest(ctx, credentials, args[0])
		if err != nil {
			return err
		}

		result, err := gateway.Execute(ctx, chatFlags.provider, req)
		if err != nil {
			return err
		}

		return printResult(cmd.OutOrStdout(), result)
	})
}

func buildChatRequest(ctx context.Context, credentials domain.CredentialStore, message string) (*domain.CompletionRequest, error) {
	credential, err := credentials.Credential(ctx, "", chatFlags.provider)
	if errors.Is(err, domain.ErrCredentialNotFound) {
		return nil, fmt.Errorf("no API key configured for %s", chatFlags.provider)
	}
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	if chatFlags.system != "" {
		messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: chatFlags.system})
	}
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: message})

	req := &domain.CompletionRequest{
		Model:      chatFlags.model,
		Messages:   messages,
		Stream:     !chatFlags.buffered,
		Credential: credential,
	}
	if chatFlags.maxTokens > 0 {
		req.MaxTokens = &chatFlags.maxTokens
	}
	if chatFlags.temperature >= 0 {
		req.Temperature = &chatFlags.temperature
	}

	return req, nil
}

func printResult(out io.Writer, result *domain.Result) error {
	if !result.Streaming() {
		_, err := fmt.Fprintln(out, result.Completion.Content)
		return err
	}

	for chunk := range result.Chunks {
		if chunk.Error != nil {
			return chunk.Error
		}
		if chunk.Done {
			break
		}
		if _, err := io.WriteString(out, chunk.Delta); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(out)
	return err
}
