package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kocoro-lab/travelian/internal/workflows"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask the travel assistant a question",
	Long:  `With a message, answers it once. Without one, starts a conversation that ends on "exit", "quit" or end of input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		a, _, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		credential := credentialFlag(cmd)

		if len(args) > 0 {
			result, err := a.Orchestrator.RunChatTurn(cmd.Context(), strings.Join(args, " "), nil, credential)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, render(result.Response, raw))
			return nil
		}

		fmt.Fprintln(out, `Ask me anything about travelling in India. Type "exit" to leave.`)
		p := newPrompter(cmd.InOrStdin(), out)
		var history []workflows.Message
		for {
			message, err := p.Ask("\nYou: ")
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if isExit(message) {
				return nil
			}
			if message == "" {
				continue
			}
			result, err := a.Orchestrator.RunChatTurn(cmd.Context(), message, history, credential)
			if err != nil {
				return err
			}
			history = result.History
			fmt.Fprintln(out, render(result.Response, raw))
		}
	},
}

func isExit(message string) bool {
	switch strings.ToLower(message) {
	case "exit", "quit", "bye":
		return true
	}
	return false
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("raw", false, "Print answers as plain markdown")
}
