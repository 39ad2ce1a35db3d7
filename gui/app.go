//go:build gui

// Package gui is the optional settings window for editing the action
// table.
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"clipmagic/store"
)

// Settings is what the window shows and edits.
type Settings struct {
	Entries []store.Entry
	// Combinations[i] is the hotkey bound to entry i, "" if unbound.
	Combinations []string
}

type App struct {
	fyneApp fyne.App
	window  fyne.Window
	form    *settingsForm
	onReady func()
	onSave  func([]store.Entry) error
	onQuit  func()
}

// NewApp returns a settings window. onReady runs in its own goroutine
// once the UI loop is up; onSave persists edited entries.
func NewApp(onReady func(), onSave func([]store.Entry) error, onQuit func()) *App {
	return &App{onReady: onReady, onSave: onSave, onQuit: onQuit}
}

// Run builds the window and blocks in the UI loop. It must be called on
// the main thread.
func Run(a *App, initial Settings) error {
	a.fyneApp = app.NewWithID("io.clipmagic.settings")
	a.fyneApp.Settings().SetTheme(&darkTheme{})
	a.build(initial)

	if desk, ok := a.fyneApp.(desktop.App); ok {
		menu := fyne.NewMenu("clipmagic",
			fyne.NewMenuItem("Settings…", a.ShowSettings),
		)
		desk.SetSystemTrayMenu(menu)
		desk.SetSystemTrayIcon(theme.ContentPasteIcon())
	}
	a.fyneApp.Lifecycle().SetOnStopped(func() {
		if a.onQuit != nil {
			a.onQuit()
		}
	})

	go a.onReady()
	a.fyneApp.Run()
	return nil
}

func (a *App) build(initial Settings) {
	a.window = a.fyneApp.NewWindow("clipmagic settings")
	a.form = newSettingsForm(initial, a.save)
	a.window.SetContent(a.form.content)
	a.window.Resize(fyne.NewSize(520, 0))
	// closing the window hides it; the app keeps listening
	a.window.SetCloseIntercept(func() { a.window.Hide() })
}

func (a *App) save(entries []store.Entry) {
	if a.onSave == nil {
		return
	}
	if err := a.onSave(entries); err != nil {
		a.form.setStatus(fmt.Sprintf("Save failed: %v", err))
		return
	}
	a.form.current.Entries = entries
	a.form.setStatus("Saved")
}

func (a *App) ShowSettings() {
	fyne.Do(func() {
		if a.window != nil {
			a.window.Show()
			a.window.RequestFocus()
		}
	})
}

// SetSettings refreshes the window after the configuration changed on
// disk.
func (a *App) SetSettings(s Settings) {
	fyne.Do(func() {
		if a.form != nil {
			a.form.load(s)
		}
	})
}

// SetLastAction shows the most recent action result in the status line.
func (a *App) SetLastAction(msg string) {
	fyne.Do(func() {
		if a.form != nil {
			a.form.setStatus(msg)
		}
	})
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}

type slotRow struct {
	combo *widget.Label
	text  *widget.Entry
	clip  *widget.Check
}

type settingsForm struct {
	current Settings
	rows    []slotRow
	status  *widget.Label
	saveBtn *widget.Button
	content fyne.CanvasObject
}

func newSettingsForm(s Settings, onSave func([]store.Entry)) *settingsForm {
	f := &settingsForm{status: widget.NewLabel("")}
	items := container.NewVBox()
	for i := range s.Entries {
		row := slotRow{
			combo: widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Monospace: true}),
			text:  widget.NewMultiLineEntry(),
			clip:  widget.NewCheck("Also copy to clipboard", nil),
		}
		row.text.SetPlaceHolder("Text to type")
		row.text.SetMinRowsVisible(2)
		f.rows = append(f.rows, row)
		items.Add(widget.NewCard(fmt.Sprintf("Slot %d", i+1), "", container.NewVBox(row.combo, row.text, row.clip)))
	}
	f.load(s)

	f.saveBtn = widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), func() {
		onSave(f.entries())
	})
	f.saveBtn.Importance = widget.HighImportance
	revert := widget.NewButtonWithIcon("Revert", theme.ContentUndoIcon(), func() {
		f.load(f.current)
	})

	f.content = container.NewBorder(nil,
		container.NewVBox(widget.NewSeparator(), container.NewHBox(f.saveBtn, revert, f.status)),
		nil, nil,
		container.NewVScroll(items),
	)
	return f
}

// load fills the rows from s. Rows beyond s.Entries are cleared.
func (f *settingsForm) load(s Settings) {
	f.current = s
	for i, row := range f.rows {
		var e store.Entry
		if i < len(s.Entries) {
			e = s.Entries[i]
		}
		combo := "unbound"
		if i < len(s.Combinations) && s.Combinations[i] != "" {
			combo = s.Combinations[i]
		}
		row.combo.SetText(combo)
		row.text.SetText(e.Text)
		row.clip.SetChecked(e.PushToClipboard)
	}
}

func (f *settingsForm) entries() []store.Entry {
	out := make([]store.Entry, len(f.rows))
	for i, row := range f.rows {
		out[i] = store.Entry{Text: row.text.Text, PushToClipboard: row.clip.Checked}
	}
	return out
}

func (f *settingsForm) setStatus(msg string) {
	f.status.SetText(msg)
}
