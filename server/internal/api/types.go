package api

import (
	"strconv"

	"github.com/mdrdcalc/mdrdcalc/server/internal/egfr"
)

// CalculateResponse is the payload for POST /calculate.
type CalculateResponse struct {
	EGFR float64 `json:"egfr"`
}

// FormattedResponse is the payload for POST /calculate_mdrd_gfr; the value
// carries its unit and the equation name.
type FormattedResponse struct {
	EGFR string `json:"egfr"`
}

// errorResponse is a generic JSON error body. Fields is set for validation
// failures only.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields []egfr.FieldError `json:"fields,omitempty"`
}

// FormatEGFR renders v as "65.5 ml/min/1.73 m² (Estimated GFR by MDRD)".
func FormatEGFR(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + " " + egfr.Unit + " (Estimated GFR by MDRD)"
}
