// Package host abstracts the editor window the extension-side services talk
// to: dialogs, pickers, external links, saving and reloading.
package host

//go:generate mockgen -destination=mocks/mock_window.go -package=mocks github.com/odvcencio/codeeditor/pkg/host Window

import "context"

// Message is a notification or dialog. An empty selection from Show* means
// the user dismissed it.
type Message struct {
	Text    string
	Detail  string
	Modal   bool
	Buttons []string
}

// PickItem is one entry of a multi-select prompt.
type PickItem struct {
	Label       string
	Description string
	Picked      bool
}

// Task is a shell task run in the editor's task system.
type Task struct {
	Name    string
	Command string
	Args    []string
}

// Window is the subset of the editor window API used by this module.
type Window interface {
	ShowInfo(ctx context.Context, msg Message) (string, error)
	ShowWarning(ctx context.Context, msg Message) (string, error)
	ShowError(ctx context.Context, msg Message) (string, error)
	PickMany(ctx context.Context, title string, items []PickItem) ([]PickItem, error)
	OpenExternal(ctx context.Context, url string) error
	SaveAll(ctx context.Context) error
	ReloadWindow(ctx context.Context) error
	RunTask(ctx context.Context, task Task) error
	SetStatus(text, tooltip string)
}
