package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	domain "welchpower/domain/power"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "ERROR")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// TestContinuous_SolvesUnsetFlag solves for the one flag left unset
func TestContinuous_SolvesUnsetFlag(t *testing.T) {
	out, err := run(t, "continuous", "--percent-b", "0.3", "--mean-diff", "0.15", "--sd-b", "2",
		"--sig-level", "0.05", "--power", "0.8")
	require.NoError(t, err)
	assert.Contains(t, out, "          N = 5155")
	assert.Contains(t, out, "alternative = two-sided")
}

func TestContinuous_JSON(t *testing.T) {
	out, err := run(t, "continuous", "--n", "3000", "--percent-b", "0.3", "--mean-diff", "0.15",
		"--sd-b", "2", "--sig-level", "0.05", "--json")
	require.NoError(t, err)

	var res domain.PowerResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, domain.TargetPower, res.Target)
	assert.InDelta(t, 0.5700792, res.Power, 1e-5)
}

func TestContinuous_RejectsTwoUnknowns(t *testing.T) {
	_, err := run(t, "continuous", "--n", "3000", "--percent-b", "0.3", "--sig-level", "0.05")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got mean_diff, power")
}

func TestProportion_SolvesPropB(t *testing.T) {
	out, err := run(t, "proportion", "--prop-a", "0.2", "--n", "3000", "--percent-b", "0.3",
		"--sig-level", "0.05", "--power", "0.8", "--alternative", "greater")
	require.NoError(t, err)
	assert.Contains(t, out, "     prop_b = 0.24")
	assert.Contains(t, out, "alternative = greater")
}

func TestCurve_WritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curve.xlsx")
	out, err := run(t, "curve", "--field", "mean_diff", "--values", "0.05,0.1,0.2",
		"--n", "3000", "--percent-b", "0.3", "--sig-level", "0.05", "--xlsx", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 3 points")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Power")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestSimulate_PrintsComparison(t *testing.T) {
	out, err := run(t, "simulate", "--n", "400", "--percent-b", "0.5", "--mean-diff", "0.3",
		"--sig-level", "0.05", "--replicates", "300", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "simulated power")
	assert.Contains(t, out, "analytic power")
}

func TestRootCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range newRootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"continuous", "proportion", "curve", "simulate"} {
		assert.True(t, names[want], want)
	}
}
