package pdf

import (
	"context"
	"testing"

	"github.com/spherical/textgrab/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_PageCountAndRaster(t *testing.T) {
	loader := NewLoader(0)
	doc, err := loader.Load(context.Background(), buildPDF(2))
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, 2, doc.PageCount())

	page, err := doc.Page(1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number())

	_, err = page.TextContent()
	require.NoError(t, err)

	w, h, err := page.ViewportSize(1.5)
	require.NoError(t, err)
	assert.Equal(t, 918, w)
	assert.Equal(t, 1188, h)

	img, err := page.Rasterize(1.5)
	require.NoError(t, err)
	assert.InDelta(t, 918, img.Bounds().Dx(), 1)
	assert.InDelta(t, 1188, img.Bounds().Dy(), 1)
}

func TestDocument_PageOutOfRange(t *testing.T) {
	doc, err := NewLoader(0).Load(context.Background(), buildPDF(1))
	require.NoError(t, err)
	defer doc.Close()

	_, err = doc.Page(0)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
	_, err = doc.Page(2)
	assert.Error(t, err)
}

func TestDocument_ClosedRejectsRender(t *testing.T) {
	doc, err := NewLoader(0).Load(context.Background(), buildPDF(1))
	require.NoError(t, err)
	page, err := doc.Page(1)
	require.NoError(t, err)

	require.NoError(t, doc.Close())
	require.NoError(t, doc.Close())

	_, err = page.Rasterize(1)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConversion))
	assert.Equal(t, 0, doc.PageCount())
}

func TestLoader_RejectsInvalidInput(t *testing.T) {
	loader := NewLoader(64)

	_, err := loader.Load(context.Background(), nil)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))

	_, err = loader.Load(context.Background(), []byte("hello, not a pdf"))
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))

	_, err = loader.Load(context.Background(), buildPDF(1))
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation), "over size limit")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLoader(0).Load(ctx, buildPDF(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidator_Scale(t *testing.T) {
	v := NewValidator(0)
	assert.NoError(t, v.ValidateScale(1.5))
	assert.Error(t, v.ValidateScale(0))
	assert.Error(t, v.ValidateScale(9))
}
