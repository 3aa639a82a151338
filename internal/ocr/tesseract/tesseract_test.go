package tesseract

import (
	"context"
	"reflect"
	"testing"

	"github.com/spherical/textgrab/internal/domain"
)

func TestSplitLanguages(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"eng", []string{"eng"}},
		{"eng+deu", []string{"eng", "deu"}},
		{" eng + fra +", []string{"eng", "fra"}},
	}
	for _, tt := range tests {
		if got := splitLanguages(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitLanguages(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRecognize_CanceledContext(t *testing.T) {
	e := NewEngine(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Recognize(ctx, domain.RecognizeRequest{Image: []byte{1}}); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
