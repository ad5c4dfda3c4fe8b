package media

import (
	"encoding/json"
	"fmt"

	"storefront/pkg/models"
)

// Counts overrides the image/video counts of a count-style manifest.
type Counts struct {
	Images *int
	Videos *int
}

type countManifest struct {
	Images models.FlexInt `json:"images"`
	Videos models.FlexInt `json:"videos"`
}

type galleryEntry struct {
	Type   string `json:"type"`
	Src    string `json:"src"`
	Poster string `json:"poster"`
	Thumb  string `json:"thumb"`
}

type manifestProduct struct {
	Image        string         `json:"image"`
	Thumb        string         `json:"thumb"`
	Images       []string       `json:"images"`
	MediaGallery []galleryEntry `json:"mediaGallery"`
}

// Expand turns a raw manifest into the media file list. A count-style
// object ({"images":N,"videos":M}) generates image1.jpg..imageN.jpg and
// video1.mp4..videoM.mp4; an array of products collects the distinct
// files they reference. Anything else yields an empty list.
func (l *Library) Expand(raw []byte, counts Counts) ([]models.MediaFile, error) {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	switch probe.(type) {
	case map[string]any:
		var m countManifest
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode count manifest: %w", err)
		}
		images, videos := int(m.Images), int(m.Videos)
		if images == 0 && videos == 0 {
			return []models.MediaFile{}, nil
		}
		if counts.Images != nil {
			images = *counts.Images
		}
		if counts.Videos != nil {
			videos = *counts.Videos
		}
		return l.fromCounts(images, videos), nil
	case []any:
		var products []manifestProduct
		if err := json.Unmarshal(raw, &products); err != nil {
			return nil, fmt.Errorf("decode product manifest: %w", err)
		}
		return l.fromProducts(products), nil
	}
	return []models.MediaFile{}, nil
}

func (l *Library) fromCounts(images, videos int) []models.MediaFile {
	files := make([]models.MediaFile, 0, max(images, 0)+max(videos, 0))
	for i := 1; i <= images; i++ {
		name := fmt.Sprintf("image%d.jpg", i)
		f := models.MediaFile{Name: name, Type: models.MediaImage, Src: name}
		if l.ThumbFolder != "" {
			f.Thumb = name
		}
		files = append(files, l.withURL(f))
	}
	for j := 1; j <= videos; j++ {
		name := fmt.Sprintf("video%d.mp4", j)
		f := models.MediaFile{Name: name, Type: models.MediaVideo, Src: name}
		if l.PosterFolder != "" {
			f.Poster = fmt.Sprintf("video%d.jpg", j)
		}
		files = append(files, l.withURL(f))
	}
	return files
}

func (l *Library) fromProducts(products []manifestProduct) []models.MediaFile {
	seen := make(map[string]bool)
	files := []models.MediaFile{}
	push := func(kind, name, extra string) {
		if name == "" || seen[kind+"::"+name] {
			return
		}
		seen[kind+"::"+name] = true
		f := models.MediaFile{Name: name, Type: kind, Src: name}
		if kind == models.MediaVideo {
			f.Poster = extra
		} else {
			f.Thumb = extra
		}
		files = append(files, l.withURL(f))
	}

	for _, p := range products {
		push(models.MediaImage, p.Image, p.Thumb)
		for _, img := range p.Images {
			push(models.MediaImage, img, "")
		}
		for _, m := range p.MediaGallery {
			if m.Type == models.MediaVideo {
				poster := m.Poster
				if poster == "" {
					poster = m.Thumb
				}
				push(models.MediaVideo, m.Src, poster)
				continue
			}
			push(models.MediaImage, m.Src, m.Thumb)
		}
	}
	return files
}

func (l *Library) withURL(f models.MediaFile) models.MediaFile {
	if f.Type == models.MediaVideo {
		f.URL = l.ResolveVideoURL(f.Src)
	} else {
		f.URL = l.ResolveImageURL(f.Src)
	}
	return f
}
