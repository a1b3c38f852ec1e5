package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// CLI 출력 포맷 (모든 커맨드 공통)

const ruleWidth = 59

// stdout is swapped in tests
var stdout io.Writer = os.Stdout

// printStep prints "[tag] msg [i/n]"
func printStep(tag, msg string, i, n int) {
	fmt.Fprintf(stdout, "[%s] %s [%d/%d]\n", tag, msg, i, n)
}

func printRule()   { fmt.Fprintln(stdout, strings.Repeat("─", ruleWidth)) }
func printBanner() { fmt.Fprintln(stdout, strings.Repeat("═", ruleWidth)) }

func printWarn(msg string) { fmt.Fprintf(stdout, "⚠️  %s\n", msg) }
func printOK(msg string)   { fmt.Fprintf(stdout, "✅ %s\n", msg) }
func printFail(msg string) { fmt.Fprintf(stdout, "❌ %s\n", msg) }

// printHeaderRow prints the column titles and an underline spanning them
func printHeaderRow(cols []string, widths []int) {
	printRow(cols, widths)
	span := 2 * (len(widths) - 1)
	for _, w := range widths {
		span += w
	}
	fmt.Fprintln(stdout, strings.Repeat("─", max(span, 0)))
}

// printRow left-pads each cell to its width, two spaces between cells
func printRow(cells []string, widths []int) {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = fmt.Sprintf("%-*s", widths[i], c)
	}
	fmt.Fprintln(stdout, strings.Join(padded, "  "))
}

func printBullets(items []string) {
	for _, it := range items {
		fmt.Fprintf(stdout, "   • %s\n", it)
	}
}

func printField(key, value string, keyWidth int) {
	fmt.Fprintf(stdout, "   %-*s : %s\n", keyWidth, key, value)
}
