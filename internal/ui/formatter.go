package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"flaky/internal/config"
	"flaky/internal/domain"
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	out    io.Writer
}

// NewFormatter creates a new Formatter writing to stdout
func NewFormatter(cfg *config.Config) *Formatter {
	return &Formatter{
		config: cfg,
		out:    os.Stdout,
	}
}

// SetOutput redirects the formatter output
func (f *Formatter) SetOutput(w io.Writer) {
	f.out = w
}

// ClassificationColor returns the console color of a classification
func ClassificationColor(c domain.Classification) *color.Color {
	switch c {
	case domain.ClassificationFlaky:
		return color.New(color.FgYellow, color.Bold)
	case domain.ClassificationFailing:
		return color.New(color.FgRed, color.Bold)
	case domain.ClassificationUnstable:
		return color.New(color.FgMagenta)
	case domain.ClassificationStable:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgHiBlack)
	}
}

// PrintSummary displays the statistics of an analysis followed by its flaky tests
// and where the results were saved
func (f *Formatter) PrintSummary(output *domain.AnalysisOutput) {
	meta := output.Meta

	// Print header
	fmt.Fprint(f.out, "\n")
	fmt.Fprintln(f.out, color.CyanString("╔═══════════════════════════════════════════════════════════════╗"))
	fmt.Fprintln(f.out, color.CyanString("║                  Flaky Test Detection Summary                 ║"))
	fmt.Fprintln(f.out, color.CyanString("╚═══════════════════════════════════════════════════════════════╝"))
	fmt.Fprintln(f.out)

	// Print table
	fmt.Fprintln(f.out, "┌─────────────────────────────────┬─────────────────────────────┐")
	f.row("Cycles Ingested", color.WhiteString("%-27s", fmt.Sprintf("%d / %d", meta.CyclesIngested, meta.CyclesPlanned)))
	f.separator()
	rejected := color.WhiteString("%-27d", meta.CyclesRejected)
	if meta.CyclesRejected > 0 {
		rejected = color.RedString("%-27d", meta.CyclesRejected)
	}
	f.row("Cycles Rejected", rejected)
	f.separator()
	f.row("Tests", color.WhiteString("%-27d", meta.Tests))
	for _, c := range domain.Classifications {
		f.separator()
		f.row(label(c), ClassificationColor(c).Sprintf("%-27d", output.Count(c)))
	}
	f.separator()
	f.row("Duration", color.WhiteString("%-27s", fmt.Sprintf("%.2fs", meta.DurationSeconds)))
	f.separator()
	f.row("Timestamp", color.WhiteString("%-27s", meta.Timestamp))
	fmt.Fprintln(f.out, "└─────────────────────────────────┴─────────────────────────────┘")

	// Print summary line
	fmt.Fprintln(f.out)
	flaky := output.Count(domain.ClassificationFlaky)
	if flaky == 0 {
		fmt.Fprintln(f.out, color.GreenString("✓ No flaky tests detected"))
	} else {
		fmt.Fprintln(f.out, color.YellowString("✗ %d flaky test(s) detected", flaky))
		fmt.Fprintln(f.out)
		f.printFlakyTree(output.Records)
	}

	if len(output.Errors) > 0 {
		fmt.Fprintln(f.out)
		fmt.Fprintln(f.out, color.RedString("Rejected cycles:"))
		for _, e := range output.Errors {
			fmt.Fprintf(f.out, "  - %s\n", e)
		}
	}

	fmt.Fprintln(f.out)
	fmt.Fprintln(f.out, color.CyanString("Results saved to %s", f.config.GetOutputPath()))
}

func (f *Formatter) row(name, value string) {
	fmt.Fprintf(f.out, "│ %-31s │ %s │\n", name, value)
}

func (f *Formatter) separator() {
	fmt.Fprintln(f.out, "├─────────────────────────────────┼─────────────────────────────┤")
}

func label(c domain.Classification) string {
	s := strings.ReplaceAll(string(c), "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

// TreeNode represents a node in the file tree structure
type TreeNode struct {
	Name     string
	Children map[string]*TreeNode
	Records  []domain.AggregatedRecord
	IsFile   bool
}

// printFlakyTree prints a tree of flaky tests grouped by file
func (f *Formatter) printFlakyTree(records []domain.AggregatedRecord) {
	root := &TreeNode{
		Name:     "",
		Children: make(map[string]*TreeNode),
		IsFile:   false,
	}

	for _, r := range records {
		if !r.IsFlaky {
			continue
		}
		parts := strings.Split(strings.TrimPrefix(r.File, "./"), "/")
		current := root

		// Navigate/create tree nodes for each path part
		for i, part := range parts {
			if part == "" {
				continue
			}

			if current.Children[part] == nil {
				current.Children[part] = &TreeNode{
					Name:     part,
					Children: make(map[string]*TreeNode),
					IsFile:   i == len(parts)-1,
				}
			}

			current = current.Children[part]

			// If this is the file (last part), add records
			if i == len(parts)-1 {
				current.Records = append(current.Records, r)
			}
		}
	}

	// Print tree recursively
	f.printTreeNode(root, "", true)
}

func (f *Formatter) printTreeNode(node *TreeNode, prefix string, isRoot bool) {
	// Sort children for consistent output
	var keys []string
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		child := node.Children[key]
		isLastChild := i == len(keys)-1

		var connector string
		if isRoot {
			connector = ""
		} else if isLastChild {
			connector = prefix + "└── "
		} else {
			connector = prefix + "├── "
		}

		if child.IsFile {
			fmt.Fprintln(f.out, color.YellowString("%s%s", connector, child.Name))
		} else {
			fmt.Fprintln(f.out, color.CyanString("%s%s", connector, child.Name))
		}

		var childPrefix string
		if isRoot {
			childPrefix = ""
		} else if isLastChild {
			childPrefix = prefix + "    "
		} else {
			childPrefix = prefix + "│   "
		}

		// Print flaky tests if this is a file
		for j, r := range child.Records {
			casePrefix := childPrefix + "├── "
			if j == len(child.Records)-1 && len(child.Children) == 0 {
				casePrefix = childPrefix + "└── "
			}
			fmt.Fprintf(f.out, "%s%s %s\n", casePrefix, displayName(r),
				color.RedString("(%.0f%% failed over %d runs)", r.FailureRate*100, r.TotalRuns))
		}

		f.printTreeNode(child, childPrefix, false)
	}
}

func displayName(r domain.AggregatedRecord) string {
	if r.Suite == "" || r.Suite == domain.DefaultSuite {
		return r.Name
	}
	return r.Suite + " › " + r.Name
}

// PrintRecordList prints the records of an analysis, one line per test.
// With flakyOnly set, only flaky records are shown.
func (f *Formatter) PrintRecordList(records []domain.AggregatedRecord, flakyOnly bool) {
	var shown []domain.AggregatedRecord
	for _, r := range records {
		if flakyOnly && !r.IsFlaky {
			continue
		}
		shown = append(shown, r)
	}

	if len(shown) == 0 {
		fmt.Fprintln(f.out, color.GreenString("No matching tests found"))
		return
	}

	fmt.Fprintln(f.out, color.GreenString("Found %d test(s):", len(shown)))
	fmt.Fprintln(f.out)

	for i, r := range shown {
		connector := "├── "
		if i == len(shown)-1 {
			connector = "└── "
		}
		badge := ClassificationColor(r.Classification).Sprintf("%-17s", "["+string(r.Classification)+"]")
		fmt.Fprintf(f.out, "%s%s %s %s\n",
			connector,
			badge,
			color.CyanString("%s", displayName(r)),
			fmt.Sprintf("fail %5.1f%%  runs %-3d  cv %.3f  confidence %.2f",
				r.FailureRate*100, r.TotalRuns, r.DurationVariance, r.Confidence),
		)
	}
}
