package interfaces

import (
	"context"
	"time"

	"juragites_estimation/internal/domain/entities"
)

type GeneratedReport struct {
	Locator   string
	FileName  string
	SizeBytes int64
}

// IReportGenerator renders the report of a calculated estimation and stores it.
// Generate must be safe to call again for the same estimation: it overwrites the
// same locator. profile may be zero when the identity provider has no row.
type IReportGenerator interface {
	Generate(ctx context.Context, e entities.Estimation, profile entities.ClientProfile) (GeneratedReport, error)
	DownloadURL(ctx context.Context, locator string) (url string, expiresAt time.Time, err error)
}
