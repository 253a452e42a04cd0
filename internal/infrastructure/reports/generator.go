package reports

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/usecase/interfaces"
)

var ErrReportNotFound = errors.New("report object not found")

// BlobStore keeps report artifacts and hands out time-limited download links.
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Generator struct {
	store BlobStore
	ttl   time.Duration
	now   func() time.Time
}

var _ interfaces.IReportGenerator = (*Generator)(nil)

func NewGenerator(store BlobStore, urlTTL time.Duration) *Generator {
	return &Generator{store: store, ttl: urlTTL, now: func() time.Time { return time.Now().UTC() }}
}

func (g *Generator) Generate(ctx context.Context, e entities.Estimation, profile entities.ClientProfile) (interfaces.GeneratedReport, error) {
	body, err := Render(e, profile, g.now())
	if err != nil {
		return interfaces.GeneratedReport{}, err
	}
	key := ObjectKey(e)
	if err := g.store.Put(ctx, key, body, ContentType); err != nil {
		log.Printf("[reports][generator] put failed estimation_id=%s key=%s err=%v", e.ID, key, err)
		return interfaces.GeneratedReport{}, err
	}
	log.Printf("[reports][generator] stored estimation_id=%s key=%s size=%d", e.ID, key, len(body))
	return interfaces.GeneratedReport{Locator: key, FileName: FileName(e), SizeBytes: int64(len(body))}, nil
}

func (g *Generator) DownloadURL(ctx context.Context, locator string) (string, time.Time, error) {
	if locator == "" {
		return "", time.Time{}, ErrReportNotFound
	}
	expires := g.now().Add(g.ttl)
	url, err := g.store.PresignGet(ctx, locator, g.ttl)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign %s: %w", locator, err)
	}
	return url, expires, nil
}
