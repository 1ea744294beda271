package domain

import "fmt"

// ReportMode selects what a rendered report contains.
type ReportMode string

const (
	// ReportAll lists every license file, the warnings and the expression.
	ReportAll ReportMode = "all"
	// ReportExpression prints the warnings and the expression only.
	ReportExpression ReportMode = "expression"
	// ReportList lists license files and warnings without the expression.
	ReportList ReportMode = "list"
)

// ReportModes enumerates the recognized modes.
var ReportModes = []ReportMode{ReportAll, ReportExpression, ReportList}

// ParseReportMode validates a mode name. An empty name means ReportAll.
func ParseReportMode(s string) (ReportMode, error) {
	if s == "" {
		return ReportAll, nil
	}
	for _, m := range ReportModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown report mode %q (choose from all, expression, list)", s)
}

// Report is the aggregated outcome of one report run.
type Report struct {
	Data       *LicenseData `json:"data"`
	Expression string       `json:"expression"`
	// UnlicensedModules is empty when the check was skipped.
	UnlicensedModules []string `json:"unlicensed_modules"`
	// Expected is the expression the result was verified against, if any.
	Expected string `json:"expected,omitempty"`
	Verified bool   `json:"verified"`
	// HideUndetected suppresses the undetected warning when it is ignored.
	HideUndetected bool   `json:"-"`
	Status         Status `json:"status"`
}
