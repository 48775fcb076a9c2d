// Package report renders solved power designs for people: a fixed-width
// text block, a Markdown table and an HTML page built from it.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	domain "welchpower/domain/power"
)

type line struct {
	label string
	value string
}

// solutionsOr shows every solution when the target had more than one
func solutionsOr(res *domain.PowerResult, target domain.Target, format string, v float64) string {
	if res.Target != target || len(res.Solutions) < 2 {
		return fmt.Sprintf(format, v)
	}
	parts := make([]string, len(res.Solutions))
	for i, s := range res.Solutions {
		parts[i] = fmt.Sprintf(format, s)
	}
	return strings.Join(parts, ", ")
}

func head(res *domain.PowerResult) []line {
	return []line{
		{"N", fmt.Sprintf("%d", res.N)},
		{"percent_b", solutionsOr(res, domain.TargetPercentB, "%.2f", res.PercentB)},
	}
}

func tail(res *domain.PowerResult) []line {
	return []line{
		{"sig_level", fmt.Sprintf("%.4f", res.SigLevel)},
		{"power", fmt.Sprintf("%.4f", res.Power)},
		{"alternative", res.Alternative.String()},
	}
}

func continuousLines(res *domain.PowerResult) []line {
	lines := head(res)
	lines = append(lines,
		line{"mean_diff", solutionsOr(res, domain.TargetMeanDiff, "%.4f", res.MeanDiff)},
		line{"sd_a", fmt.Sprintf("%.4f", res.SDA)},
		line{"sd_b", fmt.Sprintf("%.4f", res.SDB)},
	)
	return append(lines, tail(res)...)
}

func proportionLines(res *domain.ProportionResult) []line {
	lines := head(&res.PowerResult)
	lines = append(lines,
		line{"prop_a", solutionsOr(&res.PowerResult, domain.TargetPropA, "%.4f", res.PropA)},
		line{"prop_b", solutionsOr(&res.PowerResult, domain.TargetPropB, "%.4f", res.PropB)},
	)
	return append(lines, tail(&res.PowerResult)...)
}

func text(method string, lines []line) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s\n\n", method)
	for i, l := range lines {
		fmt.Fprintf(&b, "%11s = %s", l.label, l.value)
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Text renders a continuous result as an aligned block
func Text(res *domain.PowerResult) string {
	return text(res.Method, continuousLines(res))
}

// TextProportion renders a proportion result as an aligned block
func TextProportion(res *domain.ProportionResult) string {
	return text(res.Method, proportionLines(res))
}

func table(method string, target domain.Target, lines []line, diag domain.Diagnostics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", method)
	fmt.Fprintf(&b, "Solved for **%s**.\n\n", target)
	b.WriteString("| parameter | value |\n|---|---|\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "| %s | %s |\n", l.label, l.value)
	}
	b.WriteString("\n## Diagnostics\n\n| quantity | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| degrees of freedom | %.4f |\n", diag.DF)
	fmt.Fprintf(&b, "| noncentrality | %.4f |\n", diag.NCP)
	crit := make([]string, len(diag.CriticalValues))
	for i, c := range diag.CriticalValues {
		crit[i] = fmt.Sprintf("%.4f", c)
	}
	fmt.Fprintf(&b, "| critical values | %s |\n", strings.Join(crit, ", "))
	fmt.Fprintf(&b, "| achieved power | %.6f |\n", diag.AchievedPower)
	fmt.Fprintf(&b, "| iterations | %d |\n", diag.Iterations)
	return b.String()
}

// Markdown renders a continuous result with its diagnostics
func Markdown(res *domain.PowerResult) string {
	return table(res.Method, res.Target, continuousLines(res), res.Diagnostics)
}

// MarkdownProportion renders a proportion result with its diagnostics
func MarkdownProportion(res *domain.ProportionResult) string {
	return table(res.Method, res.Target, proportionLines(res), res.Diagnostics)
}

// HTML converts a Markdown report into a standalone page
func HTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{
		Title: domain.Method,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(doc, renderer)
}
