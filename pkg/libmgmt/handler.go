package libmgmt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/host"
	"github.com/odvcencio/codeeditor/pkg/logging"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

const (
	CommandSaveConfig = "saveConfig"

	MessageSaved        = "Configuration saved successfully"
	MessageScriptRan    = "Script executed successfully!"
	installTaskName     = "Script Execution"
	saveFailedPrefix    = "Failed to save configuration: "
	scriptFailedPrefix  = "Failed to execute script: "
	invalidEntriesLimit = 3
)

// Message is a command posted by the library editor.
type Message interface {
	Command() string
}

// SaveConfigMessage asks for the configuration to be persisted.
type SaveConfigMessage struct {
	Config Config
}

func (SaveConfigMessage) Command() string { return CommandSaveConfig }

type envelope struct {
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data"`
}

// DecodeMessage decodes one editor message. Unknown commands are rejected.
func DecodeMessage(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, cerrors.Wrap(err, cerrors.ErrCodeInvalidInput, "decode editor message")
	}
	switch env.Command {
	case CommandSaveConfig:
		cfg, err := Parse(env.Data)
		if err != nil {
			return nil, err
		}
		return SaveConfigMessage{Config: *cfg}, nil
	case "":
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "editor message has no command")
	default:
		return nil, cerrors.Newf(cerrors.ErrCodeInvalidInput, "unknown editor command %q", env.Command)
	}
}

// HandlerOptions configure a Handler.
type HandlerOptions struct {
	Window        host.Window
	ConfigPath    string
	InstallScript string
	// SourceDir is passed to the install script.
	SourceDir string
	Logger    *observability.Logger
	Events    *logging.Logger
}

// Handler applies editor messages to the configuration file.
type Handler struct {
	opts HandlerOptions
}

// NewHandler builds a Handler.
func NewHandler(opts HandlerOptions) *Handler {
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	return &Handler{opts: opts}
}

// Handle dispatches one message. Failures are shown to the user and returned.
func (h *Handler) Handle(ctx context.Context, msg Message) error {
	switch m := msg.(type) {
	case SaveConfigMessage:
		return h.save(ctx, m.Config)
	default:
		return cerrors.Newf(cerrors.ErrCodeInvalidInput, "unsupported editor command %q", msg.Command())
	}
}

func (h *Handler) save(ctx context.Context, cfg Config) error {
	if issues := ValidateAll(&cfg); len(issues) > 0 {
		err := cerrors.New(cerrors.ErrCodeLibMgmtInvalid, "library configuration has invalid entries").
			WithContext("count", len(issues)).
			WithUserMessage(describeIssues(issues))
		h.fail(ctx, saveFailedPrefix, err)
		return err
	}

	if err := Save(h.opts.ConfigPath, &cfg); err != nil {
		h.fail(ctx, saveFailedPrefix, err)
		return err
	}
	_ = h.opts.Events.Info(logging.CategoryLibMgmt, "saved", "", map[string]any{
		"path":  h.opts.ConfigPath,
		"apply": cfg.ApplyChangeToSpace,
	})
	h.opts.Logger.Info("library configuration saved")
	if _, err := h.opts.Window.ShowInfo(ctx, host.Message{Text: MessageSaved}); err != nil {
		return err
	}

	if !cfg.ApplyChangeToSpace {
		return nil
	}
	task := host.Task{
		Name:    installTaskName,
		Command: "bash",
		Args:    []string{h.opts.InstallScript, h.opts.SourceDir},
	}
	if err := h.opts.Window.RunTask(ctx, task); err != nil {
		h.fail(ctx, scriptFailedPrefix, err)
		return err
	}
	_, err := h.opts.Window.ShowInfo(ctx, host.Message{Text: MessageScriptRan})
	return err
}

func (h *Handler) fail(ctx context.Context, prefix string, err error) {
	h.opts.Logger.OperationFailed(strings.TrimSuffix(prefix, ": "), err)
	_ = h.opts.Events.Error(logging.CategoryLibMgmt, "failed", err.Error(), nil)
	if _, werr := h.opts.Window.ShowError(ctx, host.Message{Text: prefix + cerrors.UserMessage(err)}); werr != nil {
		h.opts.Logger.OperationFailed("show error", werr)
	}
}

func describeIssues(issues []Issue) string {
	parts := make([]string, 0, invalidEntriesLimit+1)
	for i, is := range issues {
		if i == invalidEntriesLimit {
			parts = append(parts, fmt.Sprintf("and %d more", len(issues)-i))
			break
		}
		parts = append(parts, fmt.Sprintf("%s #%d: %s", is.Section, is.Index+1, is.Message))
	}
	return strings.Join(parts, "; ")
}
