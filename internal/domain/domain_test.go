package domain

import (
	"errors"
	"fmt"
	"image"
	"testing"
)

func TestJoinPages(t *testing.T) {
	tests := []struct {
		name  string
		pages []PageResult
		want  string
	}{
		{"single page", []PageResult{{Page: 1, Text: "Hello"}}, "Hello\n\n"},
		{"trailing empty page keeps separator", []PageResult{{1, "Hello"}, {2, ""}}, "Hello\n\n\n\n"},
		{"page order preserved", []PageResult{{1, "a"}, {2, "b"}, {3, "c"}}, "a\n\nb\n\nc\n\n"},
		{"no pages", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinPages(tt.pages); got != tt.want {
				t.Errorf("JoinPages() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAllPagesEmpty(t *testing.T) {
	if !AllPagesEmpty([]PageResult{{1, ""}, {2, ""}}) {
		t.Error("expected all pages empty")
	}
	if AllPagesEmpty([]PageResult{{1, ""}, {2, " "}}) {
		t.Error("whitespace is text")
	}
	if !AllPagesEmpty(nil) {
		t.Error("no pages counts as empty")
	}
}

func TestPayloadIsImmutable(t *testing.T) {
	data := []byte{1, 2, 3}
	p := NewPayload(PayloadImage, "image/png", "a.png", data)
	data[0] = 9

	got := p.Bytes()
	if got[0] != 1 {
		t.Fatalf("payload changed after caller mutation: %v", got)
	}
	got[1] = 9
	if p.Bytes()[1] != 2 {
		t.Fatal("payload changed after mutating Bytes() result")
	}
	if p.Size() != 3 {
		t.Errorf("Size() = %d, want 3", p.Size())
	}
}

func TestRegionRect(t *testing.T) {
	r := Region{X: 10.4, Y: 20.6, Width: 30, Height: 40}
	want := image.Rect(10, 21, 40, 61)
	if got := r.Rect(); got != want {
		t.Errorf("Rect() = %v, want %v", got, want)
	}
	if !(Region{Width: 0, Height: 5}).IsEmpty() {
		t.Error("zero width region should be empty")
	}
	if back := RegionFromRect(want); back.Rect() != want {
		t.Errorf("RegionFromRect round trip = %v", back.Rect())
	}
}

func TestDomainErrorType(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("page 2: %w", RecognitionError("ocr failed", base))

	if !IsType(err, ErrorTypeRecognition) {
		t.Error("expected recognition error type")
	}
	if IsType(err, ErrorTypeValidation) {
		t.Error("unexpected validation error type")
	}
	if !errors.Is(err, base) {
		t.Error("expected wrapped cause")
	}
	if got := ValidationError("bad", nil).Error(); got != "[validation] bad" {
		t.Errorf("Error() = %q", got)
	}
}
