// Package tui is the terminal front end of the explorer: a tview list the
// rows are rendered into, key bindings for the filer commands and a prompt
// line for their arguments.
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/filetug/lazyfiler/pkg/filer"
	"github.com/filetug/lazyfiler/pkg/files"
	"github.com/filetug/lazyfiler/pkg/files/osfile"
	"github.com/filetug/lazyfiler/pkg/gitutils"
	"github.com/filetug/lazyfiler/pkg/lines"
	"github.com/filetug/lazyfiler/pkg/logging"
	"github.com/filetug/lazyfiler/pkg/render"
	"github.com/filetug/lazyfiler/pkg/state"
)

const (
	footerStatus = "status"
	footerPrompt = "prompt"
)

// Config is what the explorer is started with.
type Config struct {
	Dir       string
	Style     string
	GitStatus bool
	Editor    string
	Expanded  []string
	Store     files.Store
}

// commands run off the UI goroutine so the view callbacks they queue can be
// drawn while they wait.
var goRun = func(f func()) {
	go f()
}

var loadStatus = gitutils.LoadStatus
var saveState = state.Save

var newSurface = func(list *tview.List, queue func(f func())) lines.Surface {
	return NewListSurface(list, queue)
}

type Explorer struct {
	*tview.Flex
	app      Application
	ctx      context.Context
	cancel   context.CancelFunc
	list     *tview.List
	footer   *tview.Pages
	status   *tview.TextView
	prompt   *tview.InputField
	pending  func(text string)
	renderer *render.Renderer
	filer    *filer.Filer
	git      bool
}

func NewExplorer(app Application, cfg Config) *Explorer {
	store := cfg.Store
	if store == nil {
		store = osfile.NewStore()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Explorer{
		Flex:     tview.NewFlex().SetDirection(tview.FlexRow),
		app:      app,
		ctx:      ctx,
		cancel:   cancel,
		list:     tview.NewList().ShowSecondaryText(false).SetHighlightFullLine(true),
		footer:   tview.NewPages(),
		status:   tview.NewTextView().SetDynamicColors(true),
		prompt:   tview.NewInputField(),
		renderer: render.NewRenderer(render.NewPalette(cfg.Style)),
		git:      cfg.GitStatus,
	}
	e.list.SetBorder(true)
	e.list.SetInputCapture(e.inputCapture)

	view := lines.TextView{
		Surface:  newSurface(e.list, app.QueueUpdateDraw),
		Renderer: render.MarkupRenderer{Renderer: e.renderer},
	}
	e.filer = filer.New(store, view,
		filer.WithOpener(NewEditorOpener(app, cfg.Editor)),
		filer.WithExpanded(cfg.Expanded...),
	)

	e.prompt.SetDoneFunc(e.promptDone)
	e.footer.AddPage(footerStatus, e.status, true, true)
	e.footer.AddPage(footerPrompt, e.prompt, true, false)
	e.AddItem(e.list, 0, 1, true)
	e.AddItem(e.footer, 1, 0, false)
	return e
}

func (e *Explorer) Filer() *filer.Filer {
	return e.filer
}

// Open makes dir the root.
func (e *Explorer) Open(dir string) {
	e.run(func(ctx context.Context) error {
		if err := e.filer.Open(ctx, dir); err != nil {
			return err
		}
		return e.syncGit(ctx)
	})
}

func (e *Explorer) current() lines.LineIdx {
	return lines.LineIdx(e.list.GetCurrentItem())
}

func (e *Explorer) inputCapture(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEnter:
		e.command(false, func(ctx context.Context, idx lines.LineIdx) error {
			return e.filer.OpenOrExpand(ctx, idx)
		})
		return nil
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		e.moveToParent()
		return nil
	case tcell.KeyRune:
	default:
		return event
	}

	switch event.Rune() {
	case 'j':
		return tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)
	case 'k':
		return tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)
	case 'l':
		e.command(false, func(ctx context.Context, idx lines.LineIdx) error {
			return e.filer.OpenOrExpand(ctx, idx)
		})
	case 'o':
		e.command(false, func(ctx context.Context, idx lines.LineIdx) error {
			return e.filer.ExpandDir(ctx, idx)
		})
	case 'e':
		e.command(false, func(ctx context.Context, idx lines.LineIdx) error {
			return e.filer.OpenFile(ctx, idx)
		})
	case 'h', '-':
		e.moveToParent()
	case 'a':
		e.create()
	case 'd':
		e.remove()
	case 'r':
		e.rename()
	case 'R':
		e.run(e.refresh)
	case 'q':
		e.Close()
		e.app.Stop()
	default:
		return event
	}
	return nil
}

func (e *Explorer) moveToParent() {
	e.run(func(ctx context.Context) error {
		if err := e.filer.MoveToParent(ctx); err != nil {
			return err
		}
		return e.syncGit(ctx)
	})
}

func (e *Explorer) create() {
	idx := e.current()
	if e.list.GetItemCount() == 0 {
		e.ask("New (end with / for a directory): ", "", func(name string) {
			e.command(true, func(ctx context.Context, _ lines.LineIdx) error {
				return e.filer.CreateInRoot(ctx, name)
			})
		})
		return
	}
	e.ask("New (end with / for a directory): ", "", func(name string) {
		e.commandAt(idx, true, func(ctx context.Context, idx lines.LineIdx) error {
			return e.filer.CreateEntry(ctx, idx, name)
		})
	})
}

func (e *Explorer) remove() {
	idx := e.current()
	path, ok := e.filer.GetFilePath(idx)
	if !ok {
		return
	}
	e.ask(fmt.Sprintf("Delete %s? (y/N) ", filepath.Base(path)), "", func(answer string) {
		if answer != "y" && answer != "Y" {
			return
		}
		e.commandAt(idx, true, func(ctx context.Context, idx lines.LineIdx) error {
			return e.filer.DeleteEntry(ctx, idx)
		})
	})
}

func (e *Explorer) rename() {
	idx := e.current()
	path, ok := e.filer.GetFilePath(idx)
	if !ok {
		return
	}
	e.ask("Rename to: ", filepath.Base(path), func(target string) {
		e.commandAt(idx, true, func(ctx context.Context, idx lines.LineIdx) error {
			return e.filer.RenameEntry(ctx, idx, target)
		})
	})
}

// ask shows the prompt line; done gets the text once it is confirmed.
func (e *Explorer) ask(label, initial string, done func(text string)) {
	e.pending = done
	e.prompt.SetLabel(label)
	e.prompt.SetText(initial)
	e.footer.SwitchToPage(footerPrompt)
	e.app.SetFocus(e.prompt)
}

func (e *Explorer) promptDone(key tcell.Key) {
	done := e.pending
	e.pending = nil
	text := e.prompt.GetText()
	e.footer.SwitchToPage(footerStatus)
	e.app.SetFocus(e.list)
	if key == tcell.KeyEnter && done != nil {
		done(text)
	}
}

func (e *Explorer) command(mutates bool, fn func(ctx context.Context, idx lines.LineIdx) error) {
	e.commandAt(e.current(), mutates, fn)
}

func (e *Explorer) commandAt(idx lines.LineIdx, mutates bool, fn func(ctx context.Context, idx lines.LineIdx) error) {
	e.run(func(ctx context.Context) error {
		if err := fn(ctx, idx); err != nil {
			return err
		}
		if mutates {
			return e.syncGit(ctx)
		}
		return nil
	})
}

func (e *Explorer) run(fn func(ctx context.Context) error) {
	goRun(func() {
		err := fn(e.ctx)
		e.app.QueueUpdateDraw(func() {
			e.updateStatus(err)
		})
	})
}

// syncGit reloads the git marks and redraws the rows whose mark changed.
func (e *Explorer) syncGit(ctx context.Context) error {
	changed := e.loadGit(ctx)
	if len(changed) == 0 {
		return nil
	}
	return e.filer.Redraw(ctx, changed)
}

// refresh rereads the whole tree from disk along with the git marks.
func (e *Explorer) refresh(ctx context.Context) error {
	root := e.filer.Root()
	if root == "" {
		return nil
	}
	e.loadGit(ctx)
	return e.filer.Refresh(ctx, root)
}

// loadGit swaps in the status of the root and lists the paths whose mark
// differs from the previous one.
func (e *Explorer) loadGit(ctx context.Context) []string {
	root := e.filer.Root()
	if !e.git || root == "" {
		return nil
	}
	status, err := loadStatus(ctx, root)
	if err != nil && !errors.Is(err, gitutils.ErrNotRepository) {
		logging.Debug("git status failed", logging.String("path", root), logging.Err(err))
	}
	prev := e.renderer.SetStatus(status)
	return gitutils.Changed(prev, status)
}

func (e *Explorer) updateStatus(err error) {
	root := e.filer.Root()
	e.list.SetTitle(" " + tview.Escape(root) + " ")
	text := fmt.Sprintf("%d entries", len(e.filer.Items()))
	if branch := e.renderer.Branch(); branch != "" {
		text += "  [::b]" + tview.Escape(branch) + "[::-]"
	}
	if e.filer.Stale() {
		text += "  [yellow]out of sync[-]"
	}
	if err != nil {
		text += "  [red]" + tview.Escape(err.Error()) + "[-]"
	}
	e.status.SetText(text)
}

// Close remembers the root and the expanded directories for the next run.
func (e *Explorer) Close() {
	e.cancel()
	if root := e.filer.Root(); root != "" {
		saveState(state.State{Root: root, Expanded: e.filer.Expanded()})
	}
}
