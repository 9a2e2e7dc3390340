package image

import (
	"net/http"
	"strconv"

	"image-resizer/internal/stream"
)

// responseDestination writes the image into the HTTP response. Headers are
// sent when the consumer is created, which happens on the first output byte.
type responseDestination struct {
	w           http.ResponseWriter
	started     bool
	contentType string
}

func (d *responseDestination) CreateConsumer(info stream.ContentInfo) (stream.Consumer, error) {
	d.started = true
	d.contentType = info.Type

	header := d.w.Header()
	header.Set("Content-Type", info.Type)
	if info.Length > 0 {
		header.Set("Content-Length", strconv.FormatInt(info.Length, 10))
	}
	d.w.WriteHeader(http.StatusOK)
	return stream.ToWriter(d.w), nil
}
