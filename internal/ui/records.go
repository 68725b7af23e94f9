package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"flaky/internal/domain"
)

// maxMessages is how many failure messages the details pane shows
const maxMessages = 10

// RecordViewer browses aggregated records in an interactive TUI
type RecordViewer struct{}

// NewRecordViewer creates a new RecordViewer
func NewRecordViewer() *RecordViewer {
	return &RecordViewer{}
}

// View displays the records of an analysis in an interactive TUI
func (rv *RecordViewer) View(output *domain.AnalysisOutput) error {
	if len(output.Records) == 0 {
		color.Yellow("No tests in the last analysis")
		return nil
	}

	flakyOnly := false
	var visible []domain.AggregatedRecord

	// Create the application
	app := tview.NewApplication()

	// Create list for records (left side)
	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan).
		SetSecondaryTextColor(tview.Styles.SecondaryTextColor)

	// Create stats header view (shows identity and verdict)
	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetWordWrap(false)

	// Create text view for record details (right side)
	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	// Create a container with right padding for the details view
	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)

	// Create right side layout: stats on top, details below
	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)

	// Create simple flex layout: list on left (1/3), details on right (2/3)
	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	updateHeader := func() {
		headerView.SetText(headerText(output, len(visible), flakyOnly))
	}

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index >= 0 && index < len(visible) {
			statsView.SetText(formatRecordStats(visible[index]))
			detailsView.SetText(formatRecordDetails(visible[index]))
			detailsView.ScrollToBeginning()
		} else {
			statsView.SetText("")
			detailsView.SetText("[gray]No flaky tests[white]")
		}
	}

	populate := func() {
		visible = visible[:0]
		for _, r := range output.Records {
			if flakyOnly && !r.IsFlaky {
				continue
			}
			visible = append(visible, r)
		}
		list.Clear()
		for i, r := range visible {
			list.AddItem(listItemText(i, r), "", 0, nil)
		}
		updateHeader()
		updateDetails()
	}

	// Set up keyboard handlers for list
	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp, tcell.KeyDown:
			return event
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'f', 'F':
				flakyOnly = !flakyOnly
				populate()
				return nil
			case 'q', 'Q':
				app.Stop()
				return nil
			}
		}
		return event
	})

	// Set up keyboard handlers for details view
	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	// Update details when list selection changes
	list.SetChangedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		updateDetails()
	})

	populate()

	// Create main layout with title
	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	// Run the application
	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}

func headerText(output *domain.AnalysisOutput, shown int, flakyOnly bool) string {
	scope := "all"
	if flakyOnly {
		scope = "flaky only"
	}
	return fmt.Sprintf(" Tests (%d shown, %s, %d flaky) | ↑↓ navigate, → details, ← back, [yellow]F[white] toggle flaky, [yellow]Q[white] quit ",
		shown, scope, output.Count(domain.ClassificationFlaky))
}

// tagColor maps a classification to a tview color tag
func tagColor(c domain.Classification) string {
	switch c {
	case domain.ClassificationFlaky:
		return "yellow"
	case domain.ClassificationFailing:
		return "red"
	case domain.ClassificationUnstable:
		return "fuchsia"
	case domain.ClassificationStable:
		return "green"
	default:
		return "gray"
	}
}

func listItemText(index int, r domain.AggregatedRecord) string {
	return fmt.Sprintf("[%s]%d.[white] %s", tagColor(r.Classification), index+1, tview.Escape(displayName(r)))
}

// formatRecordStats formats the stats header for a record
func formatRecordStats(r domain.AggregatedRecord) string {
	return fmt.Sprintf("[cyan]path:[white] [yellow]%s[white]::[yellow]%s[white]\n[%s]%s[white] confidence %.2f\n",
		tview.Escape(r.File), tview.Escape(displayName(r)),
		tagColor(r.Classification), r.Classification, r.Confidence)
}

// formatRecordDetails formats a record for display using tview color tags ([red], [cyan], etc.)
func formatRecordDetails(r domain.AggregatedRecord) string {
	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Runs:\t%d\n", r.TotalRuns)
	fmt.Fprintf(w, "Passed:\t%d\n", r.Passed)
	fmt.Fprintf(w, "Failed:\t%d\n", r.Failed)
	fmt.Fprintf(w, "Skipped:\t%d\n", r.Skipped)
	if r.Pending > 0 || r.Other > 0 {
		fmt.Fprintf(w, "Pending:\t%d\n", r.Pending)
		fmt.Fprintf(w, "Other:\t%d\n", r.Other)
	}
	fmt.Fprintf(w, "Failure rate:\t%.1f%%\n", r.FailureRate*100)
	fmt.Fprintf(w, "Average duration:\t%.1fms\n", r.AverageDuration)
	fmt.Fprintf(w, "Duration CV:\t%.3f\n", r.DurationVariance)
	w.Flush()

	if len(r.Tags) > 0 {
		fmt.Fprintf(&builder, "\n[cyan]Tags:[white] %s\n", tview.Escape(strings.Join(r.Tags, ", ")))
	}

	if len(r.FailureMessages) > 0 {
		fmt.Fprintf(&builder, "\n[yellow]Failure Messages:[white]\n")
		for i, msg := range r.FailureMessages {
			if i == maxMessages {
				fmt.Fprintf(&builder, "  [gray]... and %d more[white]\n", len(r.FailureMessages)-maxMessages)
				break
			}
			fmt.Fprintf(&builder, "[red]✗[white] %s\n\n", tview.Escape(msg))
		}
	}

	return builder.String()
}
