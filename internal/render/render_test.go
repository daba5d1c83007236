package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTMLRendersMarkdown(t *testing.T) {
	out := string(New().HTML("**Important:** read this\nnext line"))
	require.Contains(t, out, "<strong>Important:</strong>")
	require.Contains(t, out, "<br")
}

func TestHTMLStripsScripts(t *testing.T) {
	out := string(New().HTML("hi <script>alert(1)</script>"))
	require.NotContains(t, strings.ToLower(out), "<script")
	require.Contains(t, out, "hi")
}

func TestClock(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 0, 0, time.Local)
	require.Equal(t, "07:05", Clock(ts))
}
