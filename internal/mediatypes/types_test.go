package mediatypes

import "testing"

// TestParse tests round-tripping of persisted media type values.
func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    MediaType
		wantErr bool
	}{
		{name: "image", input: "image", want: Image},
		{name: "video", input: "video", want: Video},
		{name: "mixed case", input: "Image", want: Image},
		{name: "unknown value", input: "audio", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestFromPath tests extension-based classification.
func TestFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		want   MediaType
		wantOK bool
	}{
		{"/library/photo.jpg", Image, true},
		{"/library/photo.JPEG", Image, true},
		{"/library/clip.mp4", Video, true},
		{"/library/clip.MOV", Video, true},
		{"/library/raw.heic", Image, true},
		{"/library/notes.txt", "", false},
		{"/library/noext", "", false},
	}

	for _, tt := range tests {
		got, ok := FromPath(tt.path)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("FromPath(%q) = (%v, %v), want (%v, %v)", tt.path, got, ok, tt.want, tt.wantOK)
		}
	}
}

// TestDerivativeExt verifies derivative filenames use the right extension.
func TestDerivativeExt(t *testing.T) {
	t.Parallel()

	if got := Image.DerivativeExt(); got != ".webp" {
		t.Errorf("Image.DerivativeExt() = %q, want .webp", got)
	}
	if got := Video.DerivativeExt(); got != ".mp4" {
		t.Errorf("Video.DerivativeExt() = %q, want .mp4", got)
	}
}
