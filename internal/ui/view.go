/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"beadloom/internal/config"
	"beadloom/internal/domain"
	"beadloom/internal/export"
	"beadloom/internal/gallery"
	"beadloom/internal/importer"
	applog "beadloom/internal/log"
	"beadloom/internal/paint"
	"beadloom/internal/palette"
	"beadloom/internal/storage"
	"beadloom/internal/undo"
)

// Options configures the desktop UI.
type Options struct {
	Config config.AppConfig
	// Cache holds gallery thumbnails; nil renders them on every refresh.
	Cache *storage.Cache
}

// Zoom limits for the bead canvas.
const (
	MinZoom = 0.25
	MaxZoom = 4.0

	zoomPerScrollUnit = 0.01
	thumbScale        = 0.15
)

func clampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return 1
	}
	return math.Min(MaxZoom, math.Max(MinZoom, z))
}

// nextZoom applies one scroll delta to the current zoom.
func nextZoom(cur float64, dy float32) float64 {
	return clampZoom(cur + float64(dy)*zoomPerScrollUnit)
}

// editor ties the gallery, the shared undo history and the open session
// together, independent of the widget toolkit.
type editor struct {
	cfg     config.AppConfig
	palette config.Palette
	store   *gallery.Store
	hist    *undo.Manager
	cache   *storage.Cache
	session *paint.Session
	log     *slog.Logger
}

func newEditor(opts Options) (*editor, error) {
	pal, err := opts.Config.Paint.Colors()
	if err != nil {
		return nil, err
	}
	e := &editor{
		cfg:     opts.Config,
		palette: pal,
		store:   gallery.NewStore(gallery.WithBackground(pal.Background)),
		hist:    undo.NewManager(undo.Config{}),
		cache:   opts.Cache,
		log:     applog.WithComponent("ui"),
	}
	paint.BindHistory(e.store, e.hist)
	e.store.On(gallery.EventCanvasDeleted, func(ev gallery.Event) {
		if e.session != nil && e.session.Handle().ID() == ev.CanvasID {
			e.session = nil
		}
	})
	return e, nil
}

// create adds a canvas with the configured grid. The returned error text is
// shown verbatim next to the title entry.
func (e *editor) create(title string) (domain.CanvasItem, error) {
	return e.store.CreateCanvas(title, e.cfg.Grid)
}

// open populates the canvas on first use and makes it the active session.
func (e *editor) open(id uuid.UUID) (*paint.Session, error) {
	h, err := e.store.GetMutable(id)
	if err != nil {
		return nil, err
	}
	if _, err := h.EnsureBeads(e.cfg.Canvas.Width, e.palette.DefaultBead); err != nil {
		return nil, err
	}
	zoom := 1.0
	filter := paint.FilterAll
	if e.session != nil {
		zoom, filter = e.session.Zoom(), e.session.Filter()
	}
	s, err := paint.NewSession(h, e.hist, paint.Options{
		PaintColor:      e.palette.Paint,
		DefaultColor:    e.palette.DefaultBead,
		Zoom:            zoom,
		Filter:          filter,
		KDTreeThreshold: e.cfg.Paint.KDTreeThreshold,
	})
	if err != nil {
		return nil, err
	}
	if e.session != nil {
		s.SetPaintColor(e.session.PaintColor())
	}
	e.session = s
	e.log.Debug("canvas opened", slog.String("canvas", id.String()))
	return s, nil
}

// exportActive writes the active canvas with the configured preset.
func (e *editor) exportActive() ([]string, error) {
	if e.session == nil {
		return nil, fmt.Errorf("no canvas open")
	}
	c, err := e.session.Handle().Snapshot()
	if err != nil {
		return nil, err
	}
	p := export.FromCanvas(c, e.session.Filter())
	return export.BatchExport(p, export.BatchOptions{Preset: export.PresetName(e.cfg.Export.Preset), OutDir: e.cfg.Export.Dir})
}

// importImage fills the active canvas from a picture as one undoable step,
// snapping to the configured palette when one is set.
func (e *editor) importImage(img image.Image) (int, error) {
	if e.session == nil {
		return 0, fmt.Errorf("no canvas open")
	}
	opt := importer.Options{Smooth: true}
	if name := e.cfg.Paint.Palette; name != "" {
		dir, _ := config.ConfigDir()
		p, err := palette.Load(palette.Dir(dir), name)
		if err != nil {
			return 0, err
		}
		opt.Palette = p.Colors
	}
	n, err := importer.Apply(e.session, img, opt)
	if err == nil {
		e.log.Info("image imported", slog.Int("beads", n))
	}
	return n, err
}

// status is the one-line summary under the canvas.
func (e *editor) status() string {
	if e.session == nil {
		return "No canvas open"
	}
	c, err := e.session.Handle().Snapshot()
	if err != nil {
		return err.Error()
	}
	selected := 0
	for _, b := range c.Beads {
		if b.IsSelected {
			selected++
		}
	}
	return fmt.Sprintf("%s  %d/%d beads filled  undo %d  redo %d  zoom %.0f%%",
		c.Title, selected, len(c.Beads), e.session.UndoDepth(), e.session.RedoDepth(), e.session.Zoom()*100)
}

// thumbnail renders a small preview of a populated canvas through the cache.
func (e *editor) thumbnail(ctx context.Context, id uuid.UUID) (image.Image, error) {
	c, ok := e.store.ByID(id)
	if !ok {
		return nil, gallery.ErrNotFound
	}
	if len(c.Beads) == 0 {
		return nil, nil
	}
	b, _, err := export.CachedPNG(ctx, e.cache, export.FromCanvas(c, paint.FilterAll), export.PNGOptions{Scale: thumbScale, StrokeWidth: -1})
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(b))
}
