package resizer

import "image-resizer/internal/domain"

// Options holds server side encoding defaults keyed by image type.
// The "Default" key applies to types without an entry of their own.
type Options struct {
	Quality  map[string]int
	Optimize map[string]bool
}

func (o Options) DecideQuality(imageType string) int {
	if q, ok := o.Quality[imageType]; ok {
		return q
	}
	if q, ok := o.Quality[domain.DefaultConfigKey]; ok {
		return q
	}
	return domain.DefaultQuality
}

func (o Options) DecideOptimize(imageType string) bool {
	if v, ok := o.Optimize[imageType]; ok {
		return v
	}
	if v, ok := o.Optimize[domain.DefaultConfigKey]; ok {
		return v
	}
	return domain.DefaultOptimize
}
