package sweep

import (
	"bytes"
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	domain "welchpower/domain/power"
	apperrors "welchpower/internal/errors"
	"welchpower/internal/power"
)

func baseSpec() domain.TestSpec {
	spec := domain.DefaultTestSpec()
	spec.N = domain.Int(3000)
	spec.PercentB = domain.Float(0.3)
	spec.MeanDiff = domain.Float(0.15)
	spec.SDB = 2
	spec.SigLevel = domain.Float(0.05)
	return spec
}

func runner() *Runner {
	return NewRunner(power.NewEngine(domain.DefaultSolverBounds()), 4)
}

// TestCurve_OrderedAndMonotone checks points follow the input order and power grows with n
func TestCurve_OrderedAndMonotone(t *testing.T) {
	values := []float64{500, 1000, 2000, 3000, 5000}
	curve, err := runner().Curve(context.Background(), baseSpec(), FieldN, values)
	require.NoError(t, err)

	require.Len(t, curve.Points, len(values))
	for i, p := range curve.Points {
		assert.Equal(t, values[i], p.Value)
		if i > 0 {
			assert.Greater(t, p.Power, curve.Points[i-1].Power)
		}
	}
	assert.InDelta(t, 0.5700792, curve.Points[3].Power, 1e-5)
	assert.Nil(t, curve.Base.Power)
}

// TestCurve_OverridesField checks the swept field replaces the base value
func TestCurve_OverridesField(t *testing.T) {
	curve, err := runner().Curve(context.Background(), baseSpec(), FieldSigLevel, Grid(0.01, 0.2, 5))
	require.NoError(t, err)

	assert.Equal(t, 0.01, curve.Points[0].Value)
	assert.Equal(t, 0.2, curve.Points[4].Value)
	assert.Less(t, curve.Points[0].Power, curve.Points[4].Power)
}

func TestCurve_Errors(t *testing.T) {
	r := runner()
	ctx := context.Background()

	_, err := r.Curve(ctx, baseSpec(), FieldN, nil)
	assert.ErrorIs(t, err, apperrors.ErrSpecification)

	_, err = r.Curve(ctx, baseSpec(), Field("sd_a"), []float64{1})
	assert.ErrorIs(t, err, apperrors.ErrSpecification)

	_, err = r.Curve(ctx, baseSpec(), FieldN, []float64{100.5})
	assert.ErrorIs(t, err, apperrors.ErrSpecification)

	// a value outside the valid range fails the whole curve
	_, err = r.Curve(ctx, baseSpec(), FieldPercentB, []float64{0.3, 1.5})
	assert.ErrorIs(t, err, apperrors.ErrSpecification)
}

func TestGrid(t *testing.T) {
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, Grid(0, 1, 5))
	assert.Equal(t, []float64{3}, Grid(3, 9, 1))
	assert.Nil(t, Grid(0, 1, 0))
}

// TestWriteXLSX round-trips a curve through a workbook
func TestWriteXLSX(t *testing.T) {
	curve, err := runner().Curve(context.Background(), baseSpec(), FieldMeanDiff, []float64{0.1, 0.2})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, curve))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"mean_diff", "power", "df", "ncp"}, rows[0])

	got, err := strconv.ParseFloat(rows[2][1], 64)
	require.NoError(t, err)
	assert.InDelta(t, curve.Points[1].Power, got, 1e-9)
}
