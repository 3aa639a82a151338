package app

import (
	"context"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/textgrab/internal/config"
	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/imaging"
)

type staticRecognizer string

func (s staticRecognizer) Recognize(context.Context, domain.RecognizeRequest) (string, error) {
	return string(s), nil
}

func TestNew_WiresPipeline(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.History.DSN = filepath.Join(t.TempDir(), "history.db")

	a, err := New(context.Background(), cfg, nil, Options{Recognizer: staticRecognizer("hi"), Language: "deu"})
	require.NoError(t, err)
	defer a.Close()

	data, err := imaging.EncodePNG(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	p := domain.NewPayload(domain.PayloadImage, "image/png", "a.png", data)

	sess, err := a.Controller.Accept(context.Background(), p)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sess.Wait(ctx))

	assert.Equal(t, "hi", a.Controller.Display().Text)
	assert.Equal(t, "deu", sess.Language)
	require.NoError(t, a.Ready(context.Background()))

	records, err := a.Controller.History(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a.png", records[0].Name)
}

func TestNew_UnreachableStoresAreOptional(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.Driver = "redis"
	cfg.Cache.Redis.Addr = "127.0.0.1:1"
	cfg.History.Driver = "none"

	a, err := New(context.Background(), cfg, nil, Options{Recognizer: staticRecognizer("")})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.cache)
	assert.Nil(t, a.history)
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil, nil, Options{})
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}
