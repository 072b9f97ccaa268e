package errors

import (
	"strings"

	"go.uber.org/zap"
)

// Diagnostics collects the non-fatal findings of one bootstrap run
type Diagnostics struct {
	items  []*BindError
	logger *zap.Logger
}

// NewDiagnostics creates a diagnostics list that also logs each entry
func NewDiagnostics(logger *zap.Logger) *Diagnostics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Diagnostics{logger: logger}
}

// Report records a diagnostic and logs it at warn level
func (d *Diagnostics) Report(diag *BindError) {
	d.items = append(d.items, diag)
	d.logger.Warn(diag.Message,
		zap.String("code", string(diag.Code)),
		zap.String("class", diag.ClassName),
		zap.String("attribute", diag.Attribute),
	)
}

// All returns every recorded diagnostic in report order
func (d *Diagnostics) All() []*BindError {
	return d.items
}

// WithCode returns the diagnostics carrying the given code
func (d *Diagnostics) WithCode(code ErrorCode) []*BindError {
	var out []*BindError
	for _, item := range d.items {
		if item.Code == code {
			out = append(out, item)
		}
	}
	return out
}

// Len returns the number of recorded diagnostics
func (d *Diagnostics) Len() int {
	return len(d.items)
}

// String renders one diagnostic per line
func (d *Diagnostics) String() string {
	lines := make([]string, 0, len(d.items))
	for _, item := range d.items {
		lines = append(lines, item.Error())
	}
	return strings.Join(lines, "\n")
}
