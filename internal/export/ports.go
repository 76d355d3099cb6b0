// Package export pushes the aggregated year grid to external spreadsheets.
package export

import (
	"context"

	"caixa/internal/flow"
)

// YearViewExporter writes one fully aggregated year view to its destination.
type YearViewExporter interface {
	ExportYearView(ctx context.Context, view flow.YearView) error
}
