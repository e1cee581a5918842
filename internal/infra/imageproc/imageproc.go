// Package imageproc downloads and normalizes post media so it can be
// attached to a vision model call: decode, flatten transparency, resize,
// re-encode, base64.
package imageproc

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	ximage "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxDownloadBytes = 50 * 1024 * 1024 // 50 MiB cap
	maxEdgePixels    = 1024
	jpegQuality      = 85
)

// Result is the outcome of processing a single media URL.
type Result struct {
	URL       string
	Base64    string
	MediaType string // "image/jpeg" or "image/png"
	Success   bool
	Err       error
}

// Processor downloads, resizes, and re-encodes media URLs through a fixed
// worker pool, caching results per URL for the lifetime of one enrichment run.
type Processor struct {
	httpClient *http.Client
	workers    int

	mu    sync.RWMutex
	cache map[string]Result
}

// New creates a Processor with a worker pool of the given size.
func New(httpClient *http.Client, workers int) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		httpClient: httpClient,
		workers:    workers,
		cache:      make(map[string]Result),
	}
}

// ProcessAll resolves every URL, reusing cached results for URLs already
// processed in this Processor's lifetime, and fans new work out across the
// worker pool.
func (p *Processor) ProcessAll(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	pending := make([]int, 0, len(urls))

	for i, url := range urls {
		if cached, ok := p.lookup(url); ok {
			results[i] = cached
			continue
		}
		pending = append(pending, i)
	}

	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, idx := range pending {
		idx := idx
		url := urls[idx]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			result := p.process(ctx, url)

			mu.Lock()
			results[idx] = result
			mu.Unlock()

			p.store(url, result)
		}()
	}
	wg.Wait()

	return results
}

func (p *Processor) lookup(url string) (Result, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	result, ok := p.cache[url]
	return result, ok
}

func (p *Processor) store(url string, result Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[url] = result
}

func (p *Processor) process(ctx context.Context, url string) Result {
	data, err := p.download(ctx, url)
	if err != nil {
		slog.Warn("image download failed", slog.String("url", url), slog.Any("error", err))
		return Result{URL: url, Success: false, Err: err}
	}

	encoded, mediaType, err := reencode(data, url)
	if err != nil {
		slog.Warn("image re-encode failed", slog.String("url", url), slog.Any("error", err))
		return Result{URL: url, Success: false, Err: err}
	}

	return Result{
		URL:       url,
		Base64:    base64Encode(encoded),
		MediaType: mediaType,
		Success:   true,
	}
}

func (p *Processor) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, maxDownloadBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read media body: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("media exceeds %d byte cap", maxDownloadBytes)
	}

	return data, nil
}

// reencode decodes, flattens transparency onto white, resizes to a longer
// edge of at most 1024px, and re-encodes. The output format follows the
// source URL's suffix (.jpg/.jpeg keeps JPEG, everything else becomes PNG)
// rather than the decoder's sniffed format, matching the original
// downloader's suffix-based choice.
func reencode(data []byte, url string) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	flattened := flattenToWhite(img)
	resized := resizeToMaxEdge(flattened, maxEdgePixels)

	var buf bytes.Buffer
	outFormat := outputFormatForURL(url)

	switch outFormat {
	case "jpeg":
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, "", fmt.Errorf("encode jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	default:
		if err := png.Encode(&buf, resized); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	}
}

// outputFormatForURL decides the re-encode target format by the URL's file
// suffix rather than the downloaded content's sniffed format: .jpg/.jpeg
// keeps JPEG, anything else (including no recognized suffix) becomes PNG.
func outputFormatForURL(url string) string {
	path := url
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") {
		return "jpeg"
	}
	return "png"
}

// flattenToWhite composites the image over a white background, collapsing
// any alpha channel. Images with no transparency pass through unchanged
// pixel-for-pixel (compositing over white is a no-op for opaque pixels).
func flattenToWhite(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Over)
	return dst
}

func resizeToMaxEdge(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	longerEdge := width
	if height > longerEdge {
		longerEdge = height
	}
	if longerEdge <= maxEdge {
		return img
	}

	scale := float64(maxEdge) / float64(longerEdge)
	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	ximage.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, ximage.Over, nil)
	return dst
}

func base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
