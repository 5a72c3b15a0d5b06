package host

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Console is a Window backed by a terminal. When input is not a terminal,
// every prompt resolves to its dismissal value.
type Console struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	levels      map[string]lipgloss.Style

	// OnSave runs for SaveAll. Nil means there is nothing to save.
	OnSave func(ctx context.Context) error

	mu              sync.Mutex
	status          string
	reloadRequested bool
}

// NewConsole wraps stdin and stdout.
func NewConsole() *Console {
	return NewConsoleWithIO(os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdin.Fd())))
}

// NewConsoleWithIO builds a console over arbitrary streams.
func NewConsoleWithIO(in io.Reader, out io.Writer, interactive bool) *Console {
	return &Console{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
		levels:      levelStyles(lipgloss.NewRenderer(out)),
	}
}

// levelStyles colors the level tag. The renderer drops colors when out is
// not a terminal.
func levelStyles(r *lipgloss.Renderer) map[string]lipgloss.Style {
	return map[string]lipgloss.Style{
		"info": r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#5599FF"}),
		"warning": r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFAA00"}),
		"error": r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).
			Bold(true),
	}
}

func (c *Console) tag(level string) string {
	text := "[" + level + "]"
	if style, ok := c.levels[level]; ok {
		return style.Render(text)
	}
	return text
}

func (c *Console) show(ctx context.Context, level string, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(c.out, "%s %s\n", c.tag(level), msg.Text)
	if msg.Detail != "" {
		fmt.Fprintf(c.out, "    %s\n", strings.ReplaceAll(msg.Detail, "\n", "\n    "))
	}
	if len(msg.Buttons) == 0 || !c.interactive {
		return "", nil
	}
	for i, b := range msg.Buttons {
		fmt.Fprintf(c.out, "  %d) %s\n", i+1, b)
	}
	fmt.Fprint(c.out, "Select an option (empty to dismiss): ")
	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return "", nil
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(msg.Buttons) {
		return "", nil
	}
	return msg.Buttons[n-1], nil
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) ShowInfo(ctx context.Context, msg Message) (string, error) {
	return c.show(ctx, "info", msg)
}

func (c *Console) ShowWarning(ctx context.Context, msg Message) (string, error) {
	return c.show(ctx, "warning", msg)
}

func (c *Console) ShowError(ctx context.Context, msg Message) (string, error) {
	return c.show(ctx, "error", msg)
}

// PickMany lists items and reads a comma separated list of indexes. "all"
// selects everything; an empty answer keeps the pre-picked items.
func (c *Console) PickMany(ctx context.Context, title string, items []PickItem) ([]PickItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var picked []PickItem
	for _, it := range items {
		if it.Picked {
			picked = append(picked, it)
		}
	}
	if !c.interactive {
		return picked, nil
	}

	width := 0
	for _, it := range items {
		width = max(width, runewidth.StringWidth(it.Label))
	}
	fmt.Fprintln(c.out, title)
	for i, it := range items {
		mark := " "
		if it.Picked {
			mark = "x"
		}
		if it.Description == "" {
			fmt.Fprintf(c.out, "  [%s] %d) %s\n", mark, i+1, it.Label)
			continue
		}
		fmt.Fprintf(c.out, "  [%s] %d) %s  %s\n", mark, i+1, runewidth.FillRight(it.Label, width), it.Description)
	}
	fmt.Fprint(c.out, "Select (e.g. 1,3 or all): ")
	line, err := c.readLine()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(line) {
	case "":
		return picked, nil
	case "all":
		return append([]PickItem(nil), items...), nil
	case "none":
		return nil, nil
	}

	picked = picked[:0]
	seen := make(map[int]bool)
	for _, field := range strings.Split(line, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || n < 1 || n > len(items) || seen[n] {
			continue
		}
		seen[n] = true
		picked = append(picked, items[n-1])
	}
	return picked, nil
}

// OpenExternal prints url for the user to follow.
func (c *Console) OpenExternal(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Open in your browser: %s\n", url)
	return nil
}

func (c *Console) SaveAll(ctx context.Context) error {
	if c.OnSave == nil {
		return nil
	}
	return c.OnSave(ctx)
}

// ReloadWindow records the request; callers poll ReloadRequested.
func (c *Console) ReloadWindow(ctx context.Context) error {
	c.mu.Lock()
	c.reloadRequested = true
	c.mu.Unlock()
	fmt.Fprintln(c.out, "Reload requested.")
	return nil
}

// ReloadRequested reports whether ReloadWindow was called.
func (c *Console) ReloadRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloadRequested
}

// RunTask runs the task in the foreground, streaming its output.
func (c *Console) RunTask(ctx context.Context, task Task) error {
	fmt.Fprintf(c.out, "> %s\n", task.Name)
	cmd := exec.CommandContext(ctx, task.Command, task.Args...)
	cmd.Stdout = c.out
	cmd.Stderr = c.out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("task %s: %w", task.Name, err)
	}
	return nil
}

func (c *Console) SetStatus(text, tooltip string) {
	c.mu.Lock()
	c.status = text
	c.mu.Unlock()
	if tooltip != "" {
		fmt.Fprintf(c.out, "[status] %s (%s)\n", text, tooltip)
		return
	}
	fmt.Fprintf(c.out, "[status] %s\n", text)
}

// Status returns the last status text.
func (c *Console) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}
