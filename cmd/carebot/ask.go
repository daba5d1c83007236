package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/dialysiscare/carebot/internal/analysis/responder"
)

var plainAsk bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Print DialysisCareBot's reply to one question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reply := responder.Respond(strings.Join(args, " "))
		if plainAsk {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), reply)
			return err
		}

		out, err := glamour.Render(reply, "auto")
		if err != nil {
			return fmt.Errorf("render reply: %w", err)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	askCmd.Flags().BoolVar(&plainAsk, "plain", false, "Print the reply without markdown rendering")
}
