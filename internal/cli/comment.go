package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"codenote/internal/commenter"
	"codenote/internal/document"
	"codenote/internal/generator"
)

var (
	commentStart  int
	commentEnd    int
	commentDryRun bool
	commentMode   string
	commentJSON   bool
)

var commentCmd = &cobra.Command{
	Use:   "comment <file>",
	Short: "Generate comments for a selection and insert them",
	Long: `Generate comments for the selected lines of a file and insert them above
the code they describe. Lines are zero-based and the range is inclusive;
without --end the selection runs to the end of the file.

Examples:
  codenote comment main.go --start 10 --end 30
  codenote comment main.go --dry-run
  codenote comment main.go --mode listing --json`,
	Args: cobra.ExactArgs(1),
	RunE: runComment,
}

func init() {
	commentCmd.Flags().IntVarP(&commentStart, "start", "s", 0, "First selected line (zero-based)")
	commentCmd.Flags().IntVarP(&commentEnd, "end", "e", -1, "Last selected line, inclusive (default: last line)")
	commentCmd.Flags().BoolVarP(&commentDryRun, "dry-run", "n", false, "Print the diff without writing the file")
	commentCmd.Flags().StringVarP(&commentMode, "mode", "m", "", "annotations or listing (default from configuration)")
	commentCmd.Flags().BoolVar(&commentJSON, "json", false, "Print the full result as JSON")
}

func runComment(cmd *cobra.Command, args []string) error {
	var mode generator.Mode
	if commentMode != "" {
		m, err := generator.ParseMode(commentMode)
		if err != nil {
			return err
		}
		mode = m
	}

	doc, err := document.Load(args[0])
	if err != nil {
		return err
	}
	dir, err := workingDir(doc.Path)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), dir)
	if err != nil {
		return err
	}
	defer a.close()

	end := commentEnd
	if end < 0 {
		end = doc.LineCount() - 1
	}
	res, err := a.orchestrator.Comment(cmd.Context(), commenter.Request{
		Doc:       doc,
		StartLine: commentStart,
		EndLine:   end,
		DryRun:    commentDryRun,
		Mode:      mode,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if commentJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	for _, issue := range res.Issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: line %d: %s\n", issue.Line, issue.Message)
	}
	if res.Diff == "" {
		fmt.Fprintln(out, "No changes.")
		return nil
	}
	fmt.Fprint(out, res.Diff)
	if res.Applied {
		fmt.Fprintf(out, "Applied %d edit(s) to %s\n", len(res.Edits), doc.Path)
	}
	return nil
}
