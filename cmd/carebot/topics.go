package main

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/dialysiscare/carebot/internal/analysis/responder"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the topics DialysisCareBot recognises, in matching order",
	RunE: func(cmd *cobra.Command, args []string) error {
		writeTopics(cmd.OutOrStdout(), responder.Rules())
		return nil
	},
}

func writeTopics(w io.Writer, rules []responder.Rule) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Order", "Topic", "Keywords"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for i, rule := range rules {
		keywords := strings.Join(lo.Map(rule.Keywords, func(k string, _ int) string {
			return "\"" + k + "\""
		}), ", ")
		if len(rule.Keywords) == 0 {
			keywords = "(anything else)"
		}
		table.Append([]string{lo.Ternary(len(rule.Keywords) == 0, "-", strconv.Itoa(i+1)), string(rule.Topic), keywords})
	}
	table.Render()
}
