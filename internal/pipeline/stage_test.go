package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		want        Category
	}{
		{"image/jpeg", CategoryImage},
		{"image/png", CategoryImage},
		{"IMAGE/JPEG", CategoryImage},
		{"video/mp4", CategoryVideo},
		{"video/quicktime", CategoryVideo},
		{"application/pdf", CategoryPDF},
		{"application/pdf; charset=binary", CategoryPDF},
		{"application/octet-stream", CategoryOther},
		{"text/plain", CategoryOther},
		{"", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Categorize(tt.contentType))
		})
	}
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry("")

	for _, cat := range []Category{CategoryImage, CategoryVideo, CategoryPDF} {
		_, ok := r.For(cat)
		require.True(t, ok, "category %s must have a stage", cat)
	}

	_, ok := r.For(CategoryOther)
	require.False(t, ok)
}

func TestStageArtifactContracts(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry("")

	img, _ := r.For(CategoryImage)
	require.Equal(t, "optimized", img.Suffix())
	require.Equal(t, "image/webp", img.OutputContentType())

	vid, _ := r.For(CategoryVideo)
	require.Equal(t, "transcoded", vid.Suffix())
	require.Equal(t, "video/mp4", vid.OutputContentType())

	pdf, _ := r.For(CategoryPDF)
	require.Equal(t, "sanitized", pdf.Suffix())
	require.Equal(t, "application/pdf", pdf.OutputContentType())
}
