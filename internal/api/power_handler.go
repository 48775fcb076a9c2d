package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"welchpower/app"
	domain "welchpower/domain/power"
	"welchpower/internal"
	"welchpower/internal/errors"
	"welchpower/internal/report"
	"welchpower/internal/sweep"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ContinuousRequest is the JSON body of a continuous solve. Omitted
// solvable fields are the unknown; omitted standard deviations default to 1.
type ContinuousRequest struct {
	N           *int     `json:"n" binding:"omitempty,min=10"`
	PercentB    *float64 `json:"percent_b" binding:"omitempty,gt=0,lt=1"`
	MeanDiff    *float64 `json:"mean_diff"`
	SDA         *float64 `json:"sd_a" binding:"omitempty,gt=0"`
	SDB         *float64 `json:"sd_b" binding:"omitempty,gt=0"`
	SigLevel    *float64 `json:"sig_level" binding:"omitempty,gt=0,lt=1"`
	Power       *float64 `json:"power" binding:"omitempty,gt=0,lt=1"`
	Alternative string   `json:"alternative"`
	MaxSample   float64  `json:"max_sample" binding:"gte=0"`
}

// Spec converts the request into a test spec
func (r ContinuousRequest) Spec() (domain.TestSpec, error) {
	alt, err := domain.ParseAlternative(r.Alternative)
	if err != nil {
		return domain.TestSpec{}, errors.Specification("%v", err)
	}
	spec := domain.DefaultTestSpec()
	spec.N = r.N
	spec.PercentB = r.PercentB
	spec.MeanDiff = r.MeanDiff
	if r.SDA != nil {
		spec.SDA = *r.SDA
	}
	if r.SDB != nil {
		spec.SDB = *r.SDB
	}
	spec.SigLevel = r.SigLevel
	spec.Power = r.Power
	spec.Alternative = alt
	spec.MaxSample = r.MaxSample
	return spec, nil
}

// ProportionRequest is the JSON body of a proportion solve
type ProportionRequest struct {
	PropA       *float64 `json:"prop_a" binding:"omitempty,gt=0,lt=1"`
	PropB       *float64 `json:"prop_b" binding:"omitempty,gt=0,lt=1"`
	N           *int     `json:"n" binding:"omitempty,min=10"`
	PercentB    *float64 `json:"percent_b" binding:"omitempty,gt=0,lt=1"`
	SigLevel    *float64 `json:"sig_level" binding:"omitempty,gt=0,lt=1"`
	Power       *float64 `json:"power" binding:"omitempty,gt=0,lt=1"`
	Alternative string   `json:"alternative"`
	MaxSample   float64  `json:"max_sample" binding:"gte=0"`
}

// Spec converts the request into a proportion spec
func (r ProportionRequest) Spec() (domain.ProportionSpec, error) {
	alt, err := domain.ParseAlternative(r.Alternative)
	if err != nil {
		return domain.ProportionSpec{}, errors.Specification("%v", err)
	}
	return domain.ProportionSpec{
		PropA:       r.PropA,
		PropB:       r.PropB,
		N:           r.N,
		PercentB:    r.PercentB,
		SigLevel:    r.SigLevel,
		Power:       r.Power,
		Alternative: alt,
		MaxSample:   r.MaxSample,
	}, nil
}

// CurveRequest sweeps one field of a fully specified design. Values may be
// listed explicitly or generated from From, To and Count.
type CurveRequest struct {
	Design ContinuousRequest `json:"design"`
	Field  string            `json:"field" binding:"required"`
	Values []float64         `json:"values"`
	From   float64           `json:"from"`
	To     float64           `json:"to"`
	Count  int               `json:"count" binding:"gte=0,lte=10000"`
}

// PowerHandler handles power analysis requests
type PowerHandler struct {
	service *app.PowerService
	logger  *internal.Logger
}

// NewPowerHandler creates a new power handler
func NewPowerHandler(service *app.PowerService, logger *internal.Logger) *PowerHandler {
	return &PowerHandler{service: service, logger: logger}
}

func (h *PowerHandler) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request %s failed: %v", c.GetString(requestIDKey), err)
	}
	c.JSON(status, gin.H{
		"error":      err.Error(),
		"code":       errors.GetCode(err),
		"request_id": c.GetString(requestIDKey),
	})
}

func (h *PowerHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.fail(c, errors.Wrap(errors.InvalidInput(err.Error()), "invalid request body"))
		return false
	}
	return true
}

// respond writes the result as JSON, plain text or HTML per ?format=
func respond(c *gin.Context, result interface{}, text func() string, md func() string) {
	switch c.DefaultQuery("format", "json") {
	case "text":
		c.String(http.StatusOK, text())
	case "html":
		c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(md()))
	case "markdown":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md()))
	default:
		c.JSON(http.StatusOK, result)
	}
}

// SolveContinuous solves a continuous-outcome design
func (h *PowerHandler) SolveContinuous(c *gin.Context) {
	var req ContinuousRequest
	if !h.bind(c, &req) {
		return
	}
	spec, err := req.Spec()
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.service.Solve(c.Request.Context(), spec)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, res,
		func() string { return report.Text(res) },
		func() string { return report.Markdown(res) })
}

// SolveProportion solves a proportion-outcome design
func (h *PowerHandler) SolveProportion(c *gin.Context) {
	var req ProportionRequest
	if !h.bind(c, &req) {
		return
	}
	spec, err := req.Spec()
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.service.SolveProportion(c.Request.Context(), spec)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, res,
		func() string { return report.TextProportion(res) },
		func() string { return report.MarkdownProportion(res) })
}

// Curve evaluates a power curve, as JSON or as a workbook with ?format=xlsx
func (h *PowerHandler) Curve(c *gin.Context) {
	var req CurveRequest
	if !h.bind(c, &req) {
		return
	}
	field, err := sweep.ParseField(req.Field)
	if err != nil {
		h.fail(c, err)
		return
	}
	spec, err := req.Design.Spec()
	if err != nil {
		h.fail(c, err)
		return
	}
	values := req.Values
	if len(values) == 0 {
		values = sweep.Grid(req.From, req.To, req.Count)
	}

	curve, err := h.service.Curve(c.Request.Context(), spec, field, values)
	if err != nil {
		h.fail(c, err)
		return
	}

	if c.Query("format") == "xlsx" {
		var buf bytes.Buffer
		if err := sweep.WriteXLSX(&buf, curve); err != nil {
			h.fail(c, errors.Wrap(err, "failed to write workbook"))
			return
		}
		c.Header("Content-Disposition", `attachment; filename="power_curve.xlsx"`)
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
		return
	}
	c.JSON(http.StatusOK, curve)
}

// Simulate solves a design and cross-checks its power by Monte Carlo
func (h *PowerHandler) Simulate(c *gin.Context) {
	var req ContinuousRequest
	if !h.bind(c, &req) {
		return
	}
	spec, err := req.Spec()
	if err != nil {
		h.fail(c, err)
		return
	}

	rep, err := h.service.Simulate(c.Request.Context(), spec)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
