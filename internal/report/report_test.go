package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "welchpower/domain/power"
	"welchpower/internal/power"
)

func solved(t *testing.T) *domain.PowerResult {
	t.Helper()
	spec := domain.DefaultTestSpec()
	spec.N = domain.Int(3000)
	spec.PercentB = domain.Float(0.3)
	spec.MeanDiff = domain.Float(0.15)
	spec.SDB = 2
	spec.SigLevel = domain.Float(0.05)

	res, err := power.Solve(spec)
	require.NoError(t, err)
	return res
}

// TestText_Layout checks the aligned block layout
func TestText_Layout(t *testing.T) {
	want := strings.Join([]string{
		"  t-test Power Calculation",
		"",
		"          N = 3000",
		"  percent_b = 0.30",
		"  mean_diff = 0.1500",
		"       sd_a = 1.0000",
		"       sd_b = 2.0000",
		"  sig_level = 0.0500",
		"      power = 0.5701",
		"alternative = two-sided",
	}, "\n")
	assert.Equal(t, want, Text(solved(t)))
}

// TestText_ListsBothSolutions shows both roots of a bimodal search
func TestText_ListsBothSolutions(t *testing.T) {
	spec := domain.ProportionSpec{
		PropA:    domain.Float(0.2),
		N:        domain.Int(3000),
		PercentB: domain.Float(0.3),
		SigLevel: domain.Float(0.05),
		Power:    domain.Float(0.8),
	}
	res, err := power.SolveProportion(spec)
	require.NoError(t, err)

	out := TextProportion(res)
	assert.Contains(t, out, "     prop_a = 0.2000\n")
	assert.Contains(t, out, "     prop_b = 0.158")
	assert.Contains(t, out, ", 0.247")
	assert.NotContains(t, out, "mean_diff")
}

func TestMarkdownAndHTML(t *testing.T) {
	res := solved(t)

	md := Markdown(res)
	assert.Contains(t, md, "# t-test Power Calculation")
	assert.Contains(t, md, "Solved for **power**.")
	assert.Contains(t, md, "| mean_diff | 0.1500 |")
	assert.Contains(t, md, "| critical values | -1.96")

	page := string(HTML(md))
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<title>t-test Power Calculation</title>")
	assert.Contains(t, page, "<td>sd_b</td>")
}
