// Package media serves the media library: files listed by the media
// manifest, URL resolution for bare filenames and lookups on disk.
package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"storefront/pkg/fetch"
	"storefront/pkg/models"
	"storefront/pkg/utils"
)

type Library struct {
	Manifest     string
	ImageFolder  string
	VideoFolder  string
	PosterFolder string
	ThumbFolder  string
	// Root is the directory the folders are resolved against on disk.
	Root string

	Fetcher *fetch.Fetcher
	Logger  *zap.Logger

	mu     sync.Mutex
	cached []models.MediaFile
}

func NewLibrary(cfg utils.MediaConfig, fetcher *fetch.Fetcher, logger *zap.Logger) *Library {
	if fetcher == nil {
		fetcher = fetch.New(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{
		Manifest:     cfg.ManifestPath,
		ImageFolder:  cfg.ImageFolder,
		VideoFolder:  cfg.VideoFolder,
		PosterFolder: cfg.PosterFolder,
		ThumbFolder:  cfg.ThumbFolder,
		Root:         ".",
		Fetcher:      fetcher,
		Logger:       logger,
	}
}

// Files returns the media list, reusing the previous result unless
// forceScan is set or counts overrides are given. A manifest that cannot
// be loaded yields an empty list.
func (l *Library) Files(ctx context.Context, forceScan bool, counts Counts) []models.MediaFile {
	overridden := counts.Images != nil || counts.Videos != nil

	l.mu.Lock()
	if l.cached != nil && !forceScan && !overridden {
		files := append([]models.MediaFile(nil), l.cached...)
		l.mu.Unlock()
		return files
	}
	l.mu.Unlock()

	files := l.scan(ctx, counts)

	l.mu.Lock()
	l.cached = files
	l.mu.Unlock()
	return append([]models.MediaFile(nil), files...)
}

// Refresh drops the cached list.
func (l *Library) Refresh() {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
}

func (l *Library) scan(ctx context.Context, counts Counts) []models.MediaFile {
	raw, err := l.Fetcher.Get(ctx, l.Manifest)
	if err != nil {
		l.Logger.Warn("media manifest load failed", zap.String("manifest", l.Manifest), zap.Error(err))
		return []models.MediaFile{}
	}
	files, err := l.Expand(raw, counts)
	if err != nil {
		l.Logger.Warn("media manifest unreadable", zap.String("manifest", l.Manifest), zap.Error(err))
		return []models.MediaFile{}
	}
	l.Logger.Debug("media manifest scanned", zap.Int("files", len(files)))
	return files
}

func keepAsIs(src string) bool {
	return strings.HasPrefix(src, "http://") ||
		strings.HasPrefix(src, "https://") ||
		strings.HasPrefix(src, "../") ||
		strings.HasPrefix(src, "/")
}

// ResolveImageURL prefixes a bare filename with the image folder. URLs and
// relative or absolute paths are returned unchanged.
func (l *Library) ResolveImageURL(src string) string {
	if src == "" || keepAsIs(src) {
		return src
	}
	return l.ImageFolder + src
}

func (l *Library) ResolveVideoURL(src string) string {
	if src == "" || keepAsIs(src) {
		return src
	}
	return l.VideoFolder + src
}

// Find looks filename up in the media folders, the preferred kind first,
// then images, then videos.
func (l *Library) Find(filename, prefer string) (models.MediaFile, bool) {
	if filename == "" || filepath.Base(filename) != filename || filename == ".." {
		return models.MediaFile{}, false
	}

	order := []string{models.MediaImage, models.MediaVideo}
	if prefer == models.MediaVideo {
		order = []string{models.MediaVideo, models.MediaImage}
	}
	for _, kind := range order {
		folder := l.ImageFolder
		if kind == models.MediaVideo {
			folder = l.VideoFolder
		}
		if folder == "" || fetch.IsRemote(folder) {
			continue
		}
		info, err := os.Stat(filepath.Join(l.Root, folder, filename))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		return l.withURL(models.MediaFile{Name: filename, Type: kind, Src: filename}), true
	}
	return models.MediaFile{}, false
}

// FindType is Find reduced to the kind of the match.
func (l *Library) FindType(filename, prefer string) (string, bool) {
	f, ok := l.Find(filename, prefer)
	return f.Type, ok
}
