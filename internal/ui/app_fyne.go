//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"beadloom/internal/gallery"
	"beadloom/internal/importer"
	applog "beadloom/internal/log"
	"beadloom/internal/paint"
	"beadloom/internal/version"
)

// Run starts the Fyne desktop UI and blocks until the window closes.
func Run(opts Options) error {
	l := applog.WithComponent("ui")
	ed, err := newEditor(opts)
	if err != nil {
		return err
	}
	l.Info("starting UI", slog.String("version", version.String()))

	fyneApp := app.NewWithID("beadloom")
	w := fyneApp.NewWindow("Beadloom")
	prefs := fyneApp.Preferences()
	w.Resize(fyne.NewSize(
		float32(max(prefs.IntWithFallback("window.width", opts.Config.Canvas.Width+280), 640)),
		float32(max(prefs.IntWithFallback("window.height", opts.Config.Canvas.Height), 480)),
	))

	status := widget.NewLabel(ed.status())
	beads := NewBeadCanvas()
	refreshStatus := func() { status.SetText(ed.status()) }
	beads.OnChange = refreshStatus
	beads.OnError = func(err error) { dialog.ShowError(err, w) }

	// gallery list
	var summaries []gallery.Summary
	reload := func() { summaries = ed.store.List() }
	reload()
	list := widget.NewList(
		func() int { return len(summaries) },
		func() fyne.CanvasObject {
			img := canvas.NewImageFromImage(nil)
			img.FillMode = canvas.ImageFillContain
			img.SetMinSize(fyne.NewSize(40, 40))
			return container.NewHBox(img, widget.NewLabel(""))
		},
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id < 0 || id >= len(summaries) {
				return
			}
			row := o.(*fyne.Container)
			img := row.Objects[0].(*canvas.Image)
			row.Objects[1].(*widget.Label).SetText(summaries[id].Title)
			thumb, err := ed.thumbnail(context.Background(), summaries[id].ID)
			if err != nil {
				l.Debug("thumbnail failed", slog.Any("err", err))
			}
			img.Image = thumb
			img.Refresh()
		},
	)
	list.OnSelected = func(id widget.ListItemID) {
		if id < 0 || id >= len(summaries) {
			return
		}
		s, err := ed.open(summaries[id].ID)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		beads.SetSession(s)
		refreshStatus()
	}
	ed.store.OnAny(func(ev gallery.Event) {
		fyne.Do(func() {
			switch ev.Type {
			case gallery.EventCanvasCreated, gallery.EventCanvasDeleted, gallery.EventBeadsPopulated:
				reload()
				list.Refresh()
			}
			if ev.Type == gallery.EventCanvasDeleted && ed.session == nil {
				beads.SetSession(nil)
				list.UnselectAll()
			}
			refreshStatus()
		})
	})

	// new canvas entry; non-word characters are dropped while typing
	titleErr := widget.NewLabel("")
	titleErr.Importance = widget.DangerImportance
	title := widget.NewEntry()
	title.SetPlaceHolder("New canvas title")
	title.OnChanged = func(s string) {
		if clean := gallery.SanitizeTitle(s); clean != s {
			title.SetText(clean)
			return
		}
		titleErr.SetText("")
	}
	create := func() {
		c, err := ed.create(title.Text)
		if err != nil {
			titleErr.SetText(err.Error())
			return
		}
		title.SetText("")
		titleErr.SetText("")
		reload()
		list.Refresh()
		for i, s := range summaries {
			if s.ID == c.ID {
				list.Select(i)
				break
			}
		}
	}
	title.OnSubmitted = func(string) { create() }
	addBtn := widget.NewButtonWithIcon("", theme.ContentAddIcon(), create)

	left := container.NewBorder(
		container.NewVBox(container.NewBorder(nil, nil, nil, addBtn, title), titleErr),
		nil, nil, nil, list,
	)

	// toolbar
	withSession := func(fn func(s *paint.Session) error) func() {
		return func() {
			if ed.session == nil {
				return
			}
			if err := fn(ed.session); err != nil {
				dialog.ShowError(err, w)
				return
			}
			beads.Refresh()
			refreshStatus()
		}
	}
	hide := widget.NewCheck("Hide unfilled", func(on bool) {
		if ed.session == nil {
			return
		}
		if on {
			ed.session.SetFilter(paint.FilterSelected)
		} else {
			ed.session.SetFilter(paint.FilterAll)
		}
		beads.Refresh()
	})
	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentUndoIcon(), withSession(func(s *paint.Session) error { _, err := s.Undo(); return err })),
		widget.NewToolbarAction(theme.ContentRedoIcon(), withSession(func(s *paint.Session) error { _, err := s.Redo(); return err })),
		widget.NewToolbarAction(theme.ContentClearIcon(), withSession(func(s *paint.Session) error { return s.Clear() })),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ColorPaletteIcon(), func() {
			dialog.ShowColorPicker("Paint color", "Color used for new beads", func(c color.Color) {
				beads.SetPaintColor(c)
			}, w)
		}),
		widget.NewToolbarAction(theme.FileImageIcon(), func() {
			if ed.session == nil {
				return
			}
			dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
				if err != nil || rc == nil {
					return
				}
				defer rc.Close()
				img, _, err := importer.Decode(rc)
				if err != nil {
					dialog.ShowError(err, w)
					return
				}
				withSession(func(*paint.Session) error {
					_, err := ed.importImage(img)
					return err
				})()
			}, w)
		}),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			paths, err := ed.exportActive()
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			dialog.ShowInformation("Exported", strings.Join(paths, "\n"), w)
		}),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			if ed.session == nil {
				return
			}
			id := ed.session.Handle().ID()
			dialog.ShowConfirm("Delete canvas", "Delete the open canvas?", func(ok bool) {
				if !ok {
					return
				}
				if err := ed.store.DeleteCanvas(id); err != nil {
					dialog.ShowError(fmt.Errorf("delete canvas: %w", err), w)
				}
			}, w)
		}),
	)

	center := container.NewBorder(container.NewHBox(toolbar, hide), status, nil, nil, container.NewScroll(beads))
	split := container.NewHSplit(left, center)
	split.Offset = 0.25
	w.SetContent(split)

	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		l.Info("UI closed")
	})
	w.ShowAndRun()
	return nil
}
