package rubric

import (
	"testing"

	pkgerrors "github.com/fairwaylabs/swingsense-backend/internal/pkg/errors"
)

func TestVideoIDForms(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/abc123XYZ_-", "abc123XYZ_-"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ?rel=0", "dQw4w9WgXcQ"},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}
	for _, tc := range cases {
		got, err := VideoID(tc.url)
		if err != nil {
			t.Fatalf("VideoID(%q): %v", tc.url, err)
		}
		if got != tc.want {
			t.Fatalf("VideoID(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestVideoIDRejectsUnextractable(t *testing.T) {
	for _, bad := range []string{
		"",
		"not a url",
		"https://example.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/watch",
		"https://www.youtube.com/playlist?list=PL123",
		"https://youtu.be/",
	} {
		if _, err := VideoID(bad); !pkgerrors.HasCode(err, pkgerrors.CodeInvalidReference) {
			t.Fatalf("VideoID(%q) err = %v, want invalid_reference", bad, err)
		}
	}
}
