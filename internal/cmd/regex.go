package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/failguard/failguard/internal/entity"
	"github.com/failguard/failguard/internal/output"
	"github.com/failguard/failguard/internal/usecase/jail"
)

var ignorePatterns []string

var regexCmd = &cobra.Command{
	Use:   "regex <file|-> <pattern>...",
	Short: "Test failure patterns against a log file",
	Long: `Run one or more failure patterns over a log file (or stdin when the
file argument is "-") and print a per-line verdict plus a summary.
Patterns may contain the <HOST> placeholder to mark where the source
address appears.

Examples:
  failguard regex /var/log/auth.log 'Failed password for .* from <HOST>'
  journalctl -u sshd | failguard regex - 'Invalid user .* from <HOST>' --output json`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRegex,
}

func init() {
	regexCmd.Flags().StringArrayVar(&ignorePatterns, "ignore", nil, "ignore pattern (repeatable); matching lines are skipped")
	rootCmd.AddCommand(regexCmd)
}

func runRegex(cmd *cobra.Command, args []string) error {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	j, err := jail.New(entity.JailConfig{
		Name:           "tester",
		Patterns:       args[1:],
		IgnorePatterns: ignorePatterns,
	}, jail.WithLogger(quiet))
	if err != nil {
		return err
	}

	var in io.Reader
	if args[0] == "-" {
		in = cmd.InOrStdin()
	} else {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		in = f
	}

	var renderer output.Renderer
	switch strings.ToLower(outputFmt) {
	case "json":
		renderer = output.NewJSONRenderer()
	default:
		renderer = output.NewTextRenderer()
	}

	sum := output.Summary{PerIP: make(map[string]int)}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		sum.Lines++
		line := scanner.Text()
		oc := j.MatchLine(line)

		switch oc.Kind {
		case entity.OutcomeIgnored:
			sum.Ignored++
		case entity.OutcomeInvalidAddress:
			sum.Invalid++
		default:
			if oc.IsMatch() {
				sum.Matched++
				sum.PerIP[oc.IP]++
			}
		}

		if err := renderer.Render(output.Result{LineNo: sum.Lines, Text: line, Outcome: oc}); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}

	return renderer.RenderSummary(sum)
}
