package models

const (
	MediaImage = "image"
	MediaVideo = "video"
)

// MediaFile is one entry of the media library picker.
type MediaFile struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Src    string `json:"src"`
	Thumb  string `json:"thumb,omitempty"`
	Poster string `json:"poster,omitempty"`
	URL    string `json:"url,omitempty"`
}
