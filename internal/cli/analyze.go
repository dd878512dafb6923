package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"codenote/internal/document"
	"codenote/internal/structure"
)

var (
	analyzeStart int
	analyzeEnd   int
	analyzeJSON  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Show the reconciled block structure of a selection",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVarP(&analyzeStart, "start", "s", 0, "First selected line (zero-based)")
	analyzeCmd.Flags().IntVarP(&analyzeEnd, "end", "e", -1, "Last selected line, inclusive (default: last line)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the structure as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	end := analyzeEnd
	if end < 0 {
		end = doc.LineCount() - 1
	}
	forest, err := a.orchestrator.Analyze(cmd.Context(), doc, analyzeStart, end)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(forest)
	}
	printForest(out, forest)
	return nil
}

// printForest writes one line per block, indented by depth.
func printForest(w io.Writer, f *structure.Forest) {
	if f.Len() == 0 {
		fmt.Fprintln(w, "No blocks found.")
		return
	}
	f.Walk(func(i, depth int) bool {
		b := f.Block(i)
		line := fmt.Sprintf("%s%s %d:%d-%d:%d", strings.Repeat("  ", depth), b.Kind,
			b.Range.Start.Line, b.Range.Start.Col, b.Range.End.Line, b.Range.End.Col)
		if name := b.Name(); name != "" && b.Kind != structure.KindComment {
			line += " " + name
		}
		fmt.Fprintln(w, line)
		return true
	})
}
