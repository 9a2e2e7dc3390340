package domain

import "strings"

const (
	TypeJPEG    = "jpeg"
	TypePNG     = "png"
	TypeGIF     = "gif"
	TypeBMP     = "bmp"
	TypeTIFF    = "tiff"
	TypeWebP    = "webp"
	TypePDF     = "pdf"
	TypeICO     = "ico"
	TypeUnknown = "unknown"
)

// ImageTypes lists the canonical image type keys.
var ImageTypes = []string{TypeJPEG, TypePNG, TypeGIF, TypeBMP, TypeTIFF, TypeWebP, TypePDF, TypeICO}

const (
	DefaultQuality  = 85
	DefaultOptimize = false
	// DefaultConfigKey is the fallback entry of per-type quality and optimize maps.
	DefaultConfigKey = "Default"
)

// ImageInfo is the metadata reported by an analysis.
type ImageInfo struct {
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	XResolution int               `json:"xResolution"`
	YResolution int               `json:"yResolution"`
	Iptc        map[string]string `json:"iptc"`
	Exif        map[string]string `json:"exif"`
}

func ToMediaType(imageType string) string {
	switch imageType {
	case TypeJPEG:
		return "image/jpeg"
	case TypePDF:
		return "application/pdf"
	case TypeICO:
		return "image/x-icon"
	default:
		return "image/" + imageType
	}
}

func OfMediaType(mediaType string) string {
	switch mediaType {
	case "image/jpeg", "image/p-jpeg", "image/jpg":
		return TypeJPEG
	case "application/pdf", "application/x-pdf":
		return TypePDF
	case "image/x-icon":
		return TypeICO
	}
	if t, ok := strings.CutPrefix(mediaType, "image/"); ok && t != "" {
		return t
	}
	return TypeUnknown
}

func OfExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "jpg", "jpeg":
		return TypeJPEG
	case "tif", "tiff":
		return TypeTIFF
	case "":
		return TypeUnknown
	default:
		return ext
	}
}

func ToExtension(imageType string) string {
	if imageType == TypeJPEG {
		return "jpg"
	}
	return imageType
}
