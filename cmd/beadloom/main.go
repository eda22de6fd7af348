/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"beadloom/internal/config"
	"beadloom/internal/crash"
	"beadloom/internal/domain"
	"beadloom/internal/export"
	"beadloom/internal/gallery"
	"beadloom/internal/importer"
	applog "beadloom/internal/log"
	"beadloom/internal/paint"
	"beadloom/internal/palette"
	"beadloom/internal/storage"
	"beadloom/internal/ui"
	"beadloom/internal/undo"
	"beadloom/internal/version"
)

// errUsage marks bad invocations; they exit with status 2.
var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintln(w, "Beadloom: bead loom pattern designer")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  beadloom new <title> [-w N] [-h N] [-image file] [-gray] [-smooth] [-palette name] [-preset web|print] [-out dir]")
	fmt.Fprintln(w, "                                   Create a canvas, optionally fill it from a picture, export it")
	fmt.Fprintln(w, "  beadloom render <image> -title T [-w N] [-h N] [-gray] [-smooth] [-palette name] [-format png|svg|pdf] [-rows] [-o file]")
	fmt.Fprintln(w, "                                   Turn a picture into a single pattern file")
	fmt.Fprintln(w, "  beadloom stats <image> [-w N] [-h N] [-gray] [-smooth] [-palette name]")
	fmt.Fprintln(w, "                                   Print the bead count per color for a picture")
	fmt.Fprintln(w, "  beadloom palette list|show <name>|export <zip>|install <zip>")
	fmt.Fprintln(w, "                                   Manage bead palettes")
	fmt.Fprintln(w, "  beadloom config init|path|show   Manage the user configuration")
	fmt.Fprintln(w, "  beadloom ui                      Launch desktop UI (build with -tags fyne)")
	fmt.Fprintln(w, "  beadloom version|-v|--version    Show version")
}

func main() {
	defer crash.Recover(crash.DefaultDir())
	if code := run(os.Args[1:], os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

// run executes one command and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	l.Debug("start", slog.Int("args", len(args)))

	if len(args) == 0 {
		usage(stdout)
		return 0
	}
	var err error
	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintln(stdout, version.String())
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	case "config":
		err = cmdConfig(args[1:], stdout)
	case "palette":
		err = cmdPalette(args[1:], stdout)
	default:
		cfg, lerr := config.Load()
		if lerr != nil {
			fmt.Fprintln(stderr, "Error:", lerr)
			return 1
		}
		applog.Init(cfg.LogOptions())
		switch args[0] {
		case "new":
			err = cmdNew(cfg, args[1:], stdout)
		case "render":
			err = cmdRender(cfg, args[1:], stdout)
		case "stats":
			err = cmdStats(cfg, args[1:], stdout)
		case "ui":
			err = cmdUI(cfg)
		default:
			err = fmt.Errorf("%w: unknown command %q", errUsage, args[0])
		}
	}
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, "Error:", err)
	if errors.Is(err, errUsage) {
		usage(stderr)
		return 2
	}
	l.Error("command failed", slog.String("cmd", args[0]), slog.Any("err", err))
	return 1
}

// gridFlags registers -w/-h defaulting to the configured grid.
func gridFlags(fs *flag.FlagSet, cfg config.AppConfig) *domain.GridSize {
	g := cfg.Grid
	fs.IntVar(&g.Width, "w", g.Width, "grid width (bead columns per row pair)")
	fs.IntVar(&g.Height, "h", g.Height, "grid height")
	return &g
}

// parse parses flags that may follow one positional argument.
func parse(fs *flag.FlagSet, args []string) (string, error) {
	fs.SetOutput(io.Discard)
	var pos string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		pos, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	if pos == "" && fs.NArg() > 0 {
		pos = fs.Arg(0)
	}
	if pos == "" {
		return "", fmt.Errorf("%w: %s requires an argument", errUsage, fs.Name())
	}
	return pos, nil
}

// oneShot builds a fresh in-memory gallery with a single populated canvas.
func oneShot(cfg config.AppConfig, title string, grid domain.GridSize) (*paint.Session, error) {
	pal, err := cfg.Paint.Colors()
	if err != nil {
		return nil, err
	}
	store := gallery.NewStore(gallery.WithBackground(pal.Background))
	hist := undo.NewManager(undo.Config{})
	paint.BindHistory(store, hist)
	c, err := store.CreateCanvas(title, grid)
	if err != nil {
		return nil, err
	}
	h, err := store.GetMutable(c.ID)
	if err != nil {
		return nil, err
	}
	if _, err := h.EnsureBeads(cfg.Canvas.Width, pal.DefaultBead); err != nil {
		return nil, err
	}
	return paint.NewSession(h, hist, paint.Options{
		PaintColor:      pal.Paint,
		DefaultColor:    pal.DefaultBead,
		KDTreeThreshold: cfg.Paint.KDTreeThreshold,
	})
}

// importFlags holds the picture conversion flags.
type importFlags struct {
	gray, smooth bool
	palette      string
}

func addImportFlags(fs *flag.FlagSet, cfg config.AppConfig) *importFlags {
	f := &importFlags{}
	fs.BoolVar(&f.gray, "gray", false, "convert the picture to grayscale")
	fs.BoolVar(&f.smooth, "smooth", false, "use Catmull-Rom instead of nearest-neighbor scaling")
	fs.StringVar(&f.palette, "palette", cfg.Paint.Palette, "snap colors to the named palette")
	return f
}

func (f *importFlags) options() (importer.Options, error) {
	opt := importer.Options{Grayscale: f.gray, Smooth: f.smooth}
	if f.palette == "" {
		return opt, nil
	}
	p, err := loadPalette(f.palette)
	if err != nil {
		return opt, err
	}
	opt.Palette = p.Colors
	return opt, nil
}

func paletteDir() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	return palette.Dir(dir)
}

func loadPalette(name string) (palette.Palette, error) {
	return palette.Load(paletteDir(), name)
}

func importInto(s *paint.Session, path string, f *importFlags) (int, error) {
	opt, err := f.options()
	if err != nil {
		return 0, err
	}
	img, err := importer.Load(path)
	if err != nil {
		return 0, err
	}
	return importer.Apply(s, img, opt)
}

func pattern(s *paint.Session) (export.Pattern, error) {
	c, err := s.Handle().Snapshot()
	if err != nil {
		return export.Pattern{}, err
	}
	return export.FromCanvas(c, s.Filter()), nil
}

func cmdNew(cfg config.AppConfig, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	grid := gridFlags(fs, cfg)
	image := fs.String("image", "", "picture to fill the canvas from")
	imp := addImportFlags(fs, cfg)
	preset := fs.String("preset", cfg.Export.Preset, "export preset: web or print")
	out := fs.String("out", cfg.Export.Dir, "export directory")
	title, err := parse(fs, args)
	if err != nil {
		return err
	}
	s, err := oneShot(cfg, title, *grid)
	if err != nil {
		return err
	}
	if *image != "" {
		n, err := importInto(s, *image, imp)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Imported %s onto %d beads\n", *image, n)
	}
	p, err := pattern(s)
	if err != nil {
		return err
	}
	paths, err := export.BatchExport(p, export.BatchOptions{Preset: export.PresetName(*preset), OutDir: *out})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Created canvas %q (%dx%d, %d beads)\n", p.Title, grid.Width, grid.Height, len(p.Beads))
	for _, path := range paths {
		fmt.Fprintln(stdout, "Wrote", path)
	}
	return nil
}

func cmdRender(cfg config.AppConfig, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	grid := gridFlags(fs, cfg)
	title := fs.String("title", "", "canvas title")
	imp := addImportFlags(fs, cfg)
	format := fs.String("format", "png", "output format: png, svg or pdf")
	outPath := fs.String("o", "", "output file (default <title>.<format>)")
	rows := fs.Bool("rows", false, "number the rows in a gutter (png only)")
	src, err := parse(fs, args)
	if err != nil {
		return err
	}
	if *title == "" {
		*title = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	s, err := oneShot(cfg, *title, *grid)
	if err != nil {
		return err
	}
	if _, err := importInto(s, src, imp); err != nil {
		return err
	}
	p, err := pattern(s)
	if err != nil {
		return err
	}
	f := strings.ToLower(*format)
	out := *outPath
	if out == "" {
		out = p.FileName(f)
	}
	switch f {
	case "png":
		err = renderPNG(cfg, p, out, *rows)
	case "svg":
		err = export.SVG(p, out, export.SVGOptions{Margin: 4})
	case "pdf":
		err = export.PDF(p, out, export.PDFOptions{IncludeLegend: true})
	default:
		return fmt.Errorf("%w: unknown format %q", errUsage, *format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Wrote", out)
	return nil
}

// renderPNG goes through the preview cache; a cache that cannot be opened is
// skipped.
func renderPNG(cfg config.AppConfig, p export.Pattern, out string, rows bool) error {
	ctx := context.Background()
	var cache *storage.Cache
	if dir, err := cfg.CacheDir(); err == nil {
		if c, err := storage.OpenCache(ctx, dir, cfg.Cache.MaxBytes); err == nil {
			cache = c
			defer c.Close()
		} else {
			applog.WithComponent("cli").Warn("preview cache unavailable", slog.Any("err", err))
		}
	}
	b, hit, err := export.CachedPNG(ctx, cache, p, export.PNGOptions{Margin: 4, RowLabels: rows})
	if err != nil {
		return err
	}
	applog.WithComponent("cli").Debug("png rendered", slog.Bool("cache_hit", hit), slog.Int("bytes", len(b)))
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(out, b, 0o644)
}

func cmdStats(cfg config.AppConfig, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	grid := gridFlags(fs, cfg)
	imp := addImportFlags(fs, cfg)
	src, err := parse(fs, args)
	if err != nil {
		return err
	}
	s, err := oneShot(cfg, "stats", *grid)
	if err != nil {
		return err
	}
	if _, err := importInto(s, src, imp); err != nil {
		return err
	}
	beads, err := s.Handle().Beads()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d beads\n", len(beads))
	for _, cc := range paint.Count(beads) {
		fmt.Fprintf(stdout, "%s  %d\n", cc.Color.Hex(), cc.Count)
	}
	return nil
}

func cmdConfig(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: config requires init, path or show", errUsage)
	}
	switch args[0] {
	case "path":
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, p)
	case "init":
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("config already exists: %s", p)
		}
		p, err = config.Save(config.Defaults())
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Wrote", p)
	case "show":
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, _ = stdout.Write(data)
		for _, k := range config.Keys() {
			if name, ok := config.EnvOverrideFor(k); ok {
				fmt.Fprintf(stdout, "# %s overridden by %s\n", k, name)
			}
		}
	default:
		return fmt.Errorf("%w: unknown config command %q", errUsage, args[0])
	}
	return nil
}

func cmdPalette(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: palette requires list, show, export or install", errUsage)
	}
	dir := paletteDir()
	arg := func() (string, error) {
		if len(args) < 2 {
			return "", fmt.Errorf("%w: palette %s requires an argument", errUsage, args[0])
		}
		return args[1], nil
	}
	switch args[0] {
	case "list":
		names, err := palette.Names(dir)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(stdout, n)
		}
	case "show":
		name, err := arg()
		if err != nil {
			return err
		}
		p, err := loadPalette(name)
		if err != nil {
			return err
		}
		for _, c := range p.Colors {
			fmt.Fprintln(stdout, c.Hex())
		}
	case "export":
		zipPath, err := arg()
		if err != nil {
			return err
		}
		n, err := palette.ExportPack(dir, zipPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Exported %d palettes to %s\n", n, zipPath)
	case "install":
		zipPath, err := arg()
		if err != nil {
			return err
		}
		n, err := palette.InstallPack(dir, zipPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Installed %d palettes\n", n)
	default:
		return fmt.Errorf("%w: unknown palette command %q", errUsage, args[0])
	}
	return nil
}

func cmdUI(cfg config.AppConfig) error {
	opts := ui.Options{Config: cfg}
	if dir, err := cfg.CacheDir(); err == nil {
		if c, err := storage.OpenCache(context.Background(), dir, cfg.Cache.MaxBytes); err == nil {
			defer c.Close()
			opts.Cache = c
		}
	}
	return ui.Run(opts)
}
