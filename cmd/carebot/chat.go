package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dialysiscare/carebot/internal/model/persona"
	"github.com/dialysiscare/carebot/internal/tui"
)

var plainChat bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with DialysisCareBot in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		personaStore := persona.NewMemoryStore(persona.Seed())
		// the alternate screen owns stdout, so the session runs without logs
		chatService := newChatService(cfg, personaStore, zap.NewNop())
		defer chatService.Close()

		session, err := chatService.CreateSession(cmd.Context(), "")
		if err != nil {
			return err
		}
		return tui.Run(session, personaStore.Default(), tui.Options{Markdown: !plainChat})
	},
}

func init() {
	chatCmd.Flags().BoolVar(&plainChat, "plain", false, "Show replies as plain text instead of rendered markdown")
}
