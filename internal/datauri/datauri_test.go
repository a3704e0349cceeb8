package datauri

import (
	"errors"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestStringRendersDataURI(t *testing.T) {
	img := Image{MIMEType: "image/jpeg", Data: []byte("abc")}
	if got, want := img.String(), "data:image/jpeg;base64,YWJj"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestParseReadsMIMEAndPayload(t *testing.T) {
	img, err := Parse("data:image/png;base64,YWJj")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if img.MIMEType != "image/png" || string(img.Data) != "abc" {
		t.Fatalf("unexpected image %+v", img)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"http://example.com/a.png",
		"data:image/png;base64",
		"data:image/png,abc",
		"data:image/png;base64,!!!",
	}
	for _, input := range cases {
		if _, err := Parse(input); !errors.Is(err, ErrMalformed) {
			t.Errorf("Parse(%q) error = %v, want ErrMalformed", input, err)
		}
	}
}

func TestNewSniffsGenericTypes(t *testing.T) {
	img := New("application/octet-stream", pngHeader)
	if img.MIMEType != "image/png" {
		t.Fatalf("MIMEType = %q, want image/png", img.MIMEType)
	}
	if img.Extension() != ".png" {
		t.Fatalf("Extension = %q", img.Extension())
	}

	kept := New("image/jpeg; charset=binary", pngHeader)
	if kept.MIMEType != "image/jpeg" {
		t.Fatalf("explicit MIME type should be kept, got %q", kept.MIMEType)
	}
}

func TestEmpty(t *testing.T) {
	if !(Image{}).Empty() {
		t.Fatal("zero image should be empty")
	}
	if (Image{Data: []byte{1}}).Empty() {
		t.Fatal("image with data should not be empty")
	}
}
