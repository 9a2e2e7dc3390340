package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"image-resizer/internal/config"
	"image-resizer/internal/domain"
	"image-resizer/internal/provider/native"
	"image-resizer/internal/repository/image/filesystem"
	"image-resizer/internal/usecase/resizer"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/wb-go/wbf/zlog"
)

type filterFlags []string

func (f *filterFlags) String() string { return strings.Join(*f, " ") }

func (f *filterFlags) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	var (
		in        = flag.String("in", "", "Input image path")
		out       = flag.String("out", "", "Output image path")
		imageType = flag.String("type", "", "Output image type (jpeg, png, gif, bmp, tiff); derived from -out when empty")
		width     = flag.Int("width", 0, "Target width")
		height    = flag.Int("height", 0, "Target height")
		mode      = flag.String("mode", "", "Resize mode (none, exact, inbox)")
		quality   = flag.Int("quality", 0, "Output quality 1-100")
		optimize  = flag.Bool("optimize", false, "Optimize output size")
		weightX   = flag.Int("x", 0, "Horizontal crop weight for inbox mode")
		weightY   = flag.Int("y", 0, "Vertical crop weight for inbox mode")
		root      = flag.String("root", "", "Directory watermark paths are resolved against (defaults to the input directory)")
		analyze   = flag.Bool("analyze", false, "Print image information as JSON instead of resizing")
		filters   filterFlags
	)
	flag.Var(&filters, "filter", "Filter to apply, e.g. blur(1.5) or watermark(logo.png,9); may be repeated")
	flag.Parse()

	zlog.Init()
	logger := &zlog.Logger

	if *in == "" || (!*analyze && *out == "") {
		fmt.Println("Usage:")
		fmt.Println("  resize -in photo.jpg -out thumb.jpg -mode inbox -width 200 -height 200")
		fmt.Println("  resize -in photo.jpg -analyze")
		os.Exit(2)
	}

	cfg, err := config.MustLoad()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	provider, err := native.New(cfg.ProviderConfig(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create image provider")
	}
	imageResizer := resizer.NewImageResizer(provider, resizer.MustCollection(), cfg.ResizerOptions(), logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	src, err := filesystem.NewSource(*in)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid input")
	}

	if *analyze {
		info, err := imageResizer.Analyze(ctx, src)
		if err != nil {
			logger.Fatal().Err(err).Str("input", src.URI()).Msg("Failed to analyze image")
		}
		if mt, err := mimetype.DetectFile(src.Path()); err == nil {
			logger.Info().Str("media_type", mt.String()).Str("input", src.URI()).Msg("Detected media type")
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(info); err != nil {
			logger.Fatal().Err(err).Msg("Failed to print image information")
		}
		return
	}

	dst, err := filesystem.NewDestination(*out)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid output")
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	spec := domain.ResizeSpec{
		ImageType:  *imageType,
		ResizeMode: *mode,
		Filters:    filters,
	}
	if spec.ImageType == "" {
		if t := domain.OfExtension(filepath.Ext(*out)); t != domain.TypeUnknown {
			spec.ImageType = t
		}
	}
	if set["width"] {
		spec.Width = width
	}
	if set["height"] {
		spec.Height = height
	}
	if set["quality"] {
		spec.Quality = quality
	}
	if set["optimize"] {
		spec.Optimize = optimize
	}
	if set["x"] {
		spec.WeightX = weightX
	}
	if set["y"] {
		spec.WeightY = weightY
	}

	watermarkRoot := *root
	if watermarkRoot == "" {
		watermarkRoot = filepath.Dir(src.Path())
	}
	opts, err := spec.Options(filesystem.Resolver(watermarkRoot))
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid filter")
	}

	if resizerErr := imageResizer.TryResize(ctx, src, dst, opts); resizerErr != nil {
		logger.Fatal().
			Str("code", resizerErr.Code).
			Str("internal_code", resizerErr.InternalCode).
			Str("options", opts.String()).
			Msg(resizerErr.Description)
	}

	written := "unknown size"
	if st, err := os.Stat(dst.Path()); err == nil {
		written = humanize.Bytes(uint64(st.Size()))
	}
	logger.Info().
		Str("input", src.URI()).
		Str("output", dst.URI()).
		Str("size", written).
		Str("options", opts.String()).
		Msg("Image resized")
}
