package imageproc

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(width, height int, alpha bool) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			a := uint8(255)
			if alpha {
				a = 0
			}
			img.Set(x, y, color.NRGBA{R: 200, G: 50, B: 50, A: a})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func TestProcessAll_DownloadsAndResizesJPEG(t *testing.T) {
	data := encodeJPEG(t, testImage(2000, 1000, false))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	p := New(srv.Client(), 2)
	results := p.ProcessAll(context.Background(), []string{srv.URL + "/photo.jpg"})

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "image/jpeg", results[0].MediaType)
	assert.NotEmpty(t, results[0].Base64)

	bounds, err := decodeBase64Bounds(results[0].Base64)
	require.NoError(t, err)
	assert.LessOrEqual(t, bounds.Dx(), maxEdgePixels)
	assert.LessOrEqual(t, bounds.Dy(), maxEdgePixels)
}

func TestProcessAll_FlattensTransparentPNGOntoWhite(t *testing.T) {
	data := encodePNG(t, testImage(10, 10, true))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	p := New(srv.Client(), 1)
	results := p.ProcessAll(context.Background(), []string{srv.URL})

	require.Len(t, results, 1)
	require.True(t, results[0].Success)
	assert.Equal(t, "image/png", results[0].MediaType)

	_, err := decodeBase64Bounds(results[0].Base64)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(results[0].Base64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0xffff, 0xffff, 0xffff}, [4]uint32{r, g, b, a})
}

func TestProcessAll_URLSuffixDecidesFormatNotSniffedContent(t *testing.T) {
	// JPEG bytes served at a non-.jpg/.jpeg URL still re-encode to PNG: the
	// output format follows the URL's suffix, not the decoded content.
	data := encodeJPEG(t, testImage(100, 100, false))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	p := New(srv.Client(), 1)
	results := p.ProcessAll(context.Background(), []string{srv.URL + "/media/abcd"})

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "image/png", results[0].MediaType)
}

func TestProcessAll_JPEGSuffixWithQueryStringStillDecidesJPEG(t *testing.T) {
	data := encodeJPEG(t, testImage(100, 100, false))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	p := New(srv.Client(), 1)
	results := p.ProcessAll(context.Background(), []string{srv.URL + "/photo.JPEG?size=large"})

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "image/jpeg", results[0].MediaType)
}

func TestProcessAll_CachesPerURL(t *testing.T) {
	data := encodePNG(t, testImage(50, 50, false))
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	p := New(srv.Client(), 1)
	_ = p.ProcessAll(context.Background(), []string{srv.URL})
	_ = p.ProcessAll(context.Background(), []string{srv.URL, srv.URL})

	assert.Equal(t, 1, calls)
}

func TestProcessAll_DownloadFailureMarksUnsuccessful(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := New(srv.Client(), 1)
	results := p.ProcessAll(context.Background(), []string{srv.URL})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Error(t, results[0].Err)
	assert.Empty(t, results[0].Base64)
}

func TestProcessAll_UndecodableBodyMarksUnsuccessful(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not an image"))
	}))
	defer srv.Close()

	p := New(srv.Client(), 1)
	results := p.ProcessAll(context.Background(), []string{srv.URL})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
}

func TestProcessAll_OversizedDownloadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunk := make([]byte, 1024*1024)
		for i := 0; i < 51; i++ {
			_, _ = w.Write(chunk)
		}
	}))
	defer srv.Close()

	p := New(srv.Client(), 1)
	results := p.ProcessAll(context.Background(), []string{srv.URL})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
}

func TestResizeToMaxEdge_NoUpscaleWhenUnderLimit(t *testing.T) {
	img := testImage(100, 50, false)
	resized := resizeToMaxEdge(img, maxEdgePixels)
	assert.Equal(t, img.Bounds(), resized.Bounds())
}

func TestResizeToMaxEdge_PreservesAspectRatio(t *testing.T) {
	img := testImage(2048, 1024, false)
	resized := resizeToMaxEdge(img, maxEdgePixels)
	bounds := resized.Bounds()
	assert.Equal(t, maxEdgePixels, bounds.Dx())
	assert.Equal(t, maxEdgePixels/2, bounds.Dy())
}

func TestOutputFormatForURL(t *testing.T) {
	cases := map[string]string{
		"https://cdn.example.com/a/photo.jpg":          "jpeg",
		"https://cdn.example.com/a/photo.JPEG":         "jpeg",
		"https://cdn.example.com/a/photo.jpeg?w=800":   "jpeg",
		"https://cdn.example.com/a/photo.png":          "png",
		"https://cdn.example.com/a/photo.webp":         "png",
		"https://cdn.example.com/media/abcd":           "png",
		"https://cdn.example.com/a/photo.gif#fragment": "png",
	}
	for url, want := range cases {
		assert.Equal(t, want, outputFormatForURL(url), url)
	}
}

// decodeBase64Bounds round-trips a base64 payload back into an image so
// dimension assertions can run against it.
func decodeBase64Bounds(b64 string) (image.Rectangle, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return image.Rectangle{}, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return image.Rectangle{}, err
	}
	return img.Bounds(), nil
}
