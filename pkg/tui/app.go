package tui

import (
	"github.com/rivo/tview"
)

// Application is what the explorer needs from *tview.Application.
type Application interface {
	QueueUpdateDraw(f func())
	SetFocus(p tview.Primitive)
	Suspend(f func()) bool
	Stop()
}

type tviewApp struct {
	*tview.Application
}

func (a tviewApp) QueueUpdateDraw(f func()) {
	_ = a.Application.QueueUpdateDraw(f)
}

func (a tviewApp) SetFocus(p tview.Primitive) {
	_ = a.Application.SetFocus(p)
}

// SetupApp builds an explorer for app and opens cfg.Dir in it.
func SetupApp(app *tview.Application, cfg Config) *Explorer {
	app.EnableMouse(true)
	explorer := NewExplorer(tviewApp{Application: app}, cfg)
	app.SetRoot(explorer, true)
	app.SetFocus(explorer.list)
	explorer.Open(cfg.Dir)
	return explorer
}
