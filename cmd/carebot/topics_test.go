package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dialysiscare/carebot/internal/analysis/responder"
)

func TestWriteTopics(t *testing.T) {
	var buf bytes.Buffer
	writeTopics(&buf, responder.Rules())
	out := buf.String()

	require.Contains(t, out, "emergency")
	require.Contains(t, out, `"911"`)
	require.Contains(t, out, "(anything else)")
	require.Less(t, strings.Index(out, "emergency"), strings.Index(out, "vascular_access"))
}

func TestAskPlain(t *testing.T) {
	var buf bytes.Buffer
	askCmd.SetOut(&buf)
	plainAsk = true
	t.Cleanup(func() { plainAsk = false })

	require.NoError(t, askCmd.RunE(askCmd, []string{"what", "is", "dialysis"}))
	require.Equal(t, responder.Reply(responder.DialysisBasics)+"\n", buf.String())
}
