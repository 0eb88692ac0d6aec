package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()

	greenCheck = color.GreenString("✔")
	redCross   = color.RedString("✖")
)

// BeQuietError signals that the error has already been reported to the user
// and the command should just exit non-zero.
type BeQuietError struct{}

func (BeQuietError) Error() string {
	return "an error occurred"
}

// logError reports a failed remote call together with the server's correlation
// ID, so the failure can be found in the server's audit log.
func logError(err error, correlationID, msg string) error {
	evt := log.Error().Err(err)
	if correlationID != "" {
		evt = evt.Str("correlation_id", correlationID)
	}
	evt.Msg(msg)
	return BeQuietError{}
}

func logSuccess(format string, args ...any) {
	log.Info().Msgf("%s "+format, append([]any{greenCheck}, args...)...)
}

func applyTableFormat(t table.Writer) {
	if color.NoColor {
		t.SetStyle(table.StyleLight)
	} else {
		t.SetStyle(table.StyleRounded)
	}
}

func newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(header)
	return t
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func printKV(key string, val any) {
	fmt.Printf("  %-22s %v\n", faint(key)+":", val)
}

func parseScore(s string) (float64, error) {
	score, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing score '%s': %w", s, err)
	}
	if score < 0 || score > 1 {
		return 0, fmt.Errorf("score %v outside [0,1]", score)
	}
	return score, nil
}
