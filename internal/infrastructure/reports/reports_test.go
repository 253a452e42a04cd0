package reports

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/usecase/interfaces"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calculated() entities.Estimation {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	terrain := 600.0
	return entities.Estimation{
		ID:       "3f2a1b4c-0000-4000-8000-000000000001",
		ClientID: "client-1",
		Reason:   entities.ReasonDivorce,
		Attributes: entities.PropertyAttributes{
			PropertyType:  entities.PropertyTypeHouse,
			HabitableArea: 150.5,
			TerrainArea:   &terrain,
			PostalCode:    "39300",
			Condition:     entities.ConditionGood,
			Amenities:     []string{"pool", "garage"},
		},
		Result: &entities.ValuationResult{
			Low: 202500, Median: 225000, High: 247500,
			ConfidenceLevel: entities.ConfidenceMedium, ConfidenceMargin: 10, Completeness: 75,
			Breakdown: entities.ValuationBreakdown{
				PricePerM2:           decimal.NewFromInt(1500),
				PriceSource:          entities.PriceSourceLocality,
				TypeCoefficient:      decimal.NewFromInt(1),
				ConditionCoefficient: decimal.NewFromInt(1),
				TerrainCoefficient:   decimal.NewFromInt(1),
			},
			RuleVersionID: "v3", RuleVersionNumber: 3,
		},
		CreatedAt: created,
	}
}

func text(d document) string {
	var b strings.Builder
	b.WriteString(d.title + "\n" + d.subtitle + "\n")
	for _, s := range d.sections {
		b.WriteString(s.title + "\n")
		for _, l := range s.lines {
			b.WriteString(l + "\n")
		}
	}
	b.WriteString(d.footer)
	return b.String()
}

func TestComposeShowsRangeConfidenceAndDisclaimer(t *testing.T) {
	e := calculated()
	doc, err := compose(e, entities.ClientProfile{ID: "client-1", FullName: "Marie Curie", Email: "marie@example.com"}, time.Now())
	require.NoError(t, err)
	out := text(doc)

	assert.Contains(t, out, "202 500 € à 247 500 €")
	assert.Contains(t, out, "Valeur médiane: 225 000 €")
	assert.Contains(t, out, "Niveau de confiance: Moyen")
	assert.Contains(t, out, "±10%")
	assert.Contains(t, out, nonExpertiseNotice)
	assert.Contains(t, out, entities.ReasonDivorce.Disclaimer())
	assert.Contains(t, out, "Référence: 3F2A1B4C")
	assert.Contains(t, out, "Surface habitable: 150.5 m²")
	assert.Contains(t, out, "garage, pool")
	assert.Contains(t, out, "Version des règles: v3")
	assert.Contains(t, out, "Marie Curie")
	assert.Equal(t, valueRange{low: "202 500 €", median: "225 000 €", high: "247 500 €"}, doc.values)
}

func TestComposeWithoutProfileOrResult(t *testing.T) {
	e := calculated()
	doc, err := compose(e, entities.ClientProfile{}, time.Now())
	require.NoError(t, err)
	assert.NotContains(t, text(doc), "Client:")

	e.Result = nil
	_, err = compose(e, entities.ClientProfile{}, time.Now())
	assert.Error(t, err)
	_, err = Render(e, entities.ClientProfile{}, time.Now())
	assert.Error(t, err)
}

func TestRenderWritesPDF(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	body, err := Render(calculated(), entities.ClientProfile{ID: "client-1", FullName: "Marie Curie"}, at)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")), "missing PDF header")
	assert.Contains(t, string(body[len(body)-16:]), "%%EOF")
	assert.Equal(t, "application/pdf", ContentType)

	again, err := Render(calculated(), entities.ClientProfile{ID: "client-1", FullName: "Marie Curie"}, at)
	require.NoError(t, err)
	assert.Equal(t, body, again, "same input and timestamp must render the same bytes")
}

func TestFormatEuros(t *testing.T) {
	assert.Equal(t, "0", formatEuros(0))
	assert.Equal(t, "999", formatEuros(999))
	assert.Equal(t, "1 000", formatEuros(1000))
	assert.Equal(t, "1 234 567", formatEuros(1234567))
	assert.Equal(t, "-12 000", formatEuros(-12000))
}

func TestGeneratorOverwritesSameLocator(t *testing.T) {
	store := NewMemoryStore()
	g := NewGenerator(store, time.Hour)
	ctx := context.Background()
	e := calculated()

	first, err := g.Generate(ctx, e, entities.ClientProfile{})
	require.NoError(t, err)
	second, err := g.Generate(ctx, e, entities.ClientProfile{})
	require.NoError(t, err)

	assert.Equal(t, first.Locator, second.Locator)
	assert.Equal(t, "estimations/client-1/estimation_"+e.ID+".pdf", first.Locator)
	_, ok := store.Get(first.Locator)
	assert.True(t, ok)

	fixed := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }
	url, expires, err := g.DownloadURL(ctx, first.Locator)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "memory:///estimations/client-1/"))
	assert.Equal(t, fixed.Add(time.Hour), expires)

	_, _, err = g.DownloadURL(ctx, "")
	assert.ErrorIs(t, err, ErrReportNotFound)
	_, _, err = g.DownloadURL(ctx, "estimations/none")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

type fakeS3 struct {
	put     *s3.PutObjectInput
	putErr  error
	expires time.Duration
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeS3) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var o s3.PresignOptions
	for _, fn := range optFns {
		fn(&o)
	}
	f.expires = o.Expires
	return &v4.PresignedHTTPRequest{URL: "https://bucket.s3/" + *in.Key + "?X-Amz-Signature=x"}, nil
}

type statusErr int

func (e statusErr) Error() string       { return "s3 failure" }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestS3Store(t *testing.T) {
	f := &fakeS3{}
	s := &S3Store{api: f, presign: f, bucket: "reports"}
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("body"), ContentType))
	assert.Equal(t, "reports", *f.put.Bucket)
	assert.Equal(t, int64(4), *f.put.ContentLength)
	assert.Equal(t, "application/pdf", *f.put.ContentType)

	url, err := s.PresignGet(ctx, "k", 24*time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "X-Amz-Signature")
	assert.Equal(t, 24*time.Hour, f.expires)

	f.putErr = statusErr(503)
	assert.ErrorIs(t, s.Put(ctx, "k", nil, ContentType), interfaces.ErrTransient)
	f.putErr = statusErr(403)
	err = s.Put(ctx, "k", nil, ContentType)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, interfaces.ErrTransient))
}
