package tui

import (
	"context"
	"os"
	"os/exec"
	"strings"
)

var execCommand = exec.CommandContext

// EditorOpener opens files in a terminal editor while the UI is suspended.
type EditorOpener struct {
	app    Application
	editor string
}

func NewEditorOpener(app Application, editor string) EditorOpener {
	return EditorOpener{app: app, editor: editor}
}

func (o EditorOpener) OpenFile(ctx context.Context, path string) error {
	args := strings.Fields(o.editor)
	if len(args) == 0 {
		args = []string{"vi"}
	}
	var err error
	o.app.Suspend(func() {
		cmd := execCommand(ctx, args[0], append(args[1:], path)...)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		err = cmd.Run()
	})
	return err
}
