package extsync

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/codeeditor/pkg/host"
	"github.com/odvcencio/codeeditor/pkg/logging"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

const (
	WarningMessage = "Warning: You have unsynchronized extensions from SageMaker Distribution " +
		"which could result in incompatibilities with Code Editor. Do you want to install them?"
	ButtonSynchronize = "Synchronize Extensions"
	ButtonDismiss     = "Dismiss"
	PickPlaceholder   = "Select extensions to install"
	ReloadMessage     = "Extensions have been installed. \nWould you like to reload the window?"
	ButtonReload      = "Reload"
)

// Options configure a Reconciler.
type Options struct {
	Window    host.Window
	Lister    Lister
	ImageDir  string
	VolumeDir string
	// AppType is SAGEMAKER_APP_TYPE_LOWERCASE; empty disables the reconciler.
	AppType string
	Logger  *observability.Logger
	Events  *logging.Logger
}

// Reconciler offers to install prepackaged extensions the user is missing.
type Reconciler struct {
	window    host.Window
	lister    Lister
	imageDir  string
	installer Installer
	appType   string
	logger    *observability.Logger
	events    *logging.Logger
}

// NewReconciler builds a reconciler.
func NewReconciler(opts Options) *Reconciler {
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	return &Reconciler{
		window:    opts.Window,
		lister:    opts.Lister,
		imageDir:  opts.ImageDir,
		installer: Installer{VolumeDir: opts.VolumeDir},
		appType:   opts.AppType,
		logger:    opts.Logger,
		events:    opts.Events,
	}
}

// Inventory scans both directories and queries the installed set in parallel.
func (r *Reconciler) Inventory(ctx context.Context) (Plan, error) {
	var (
		installed   []string
		prepackaged []ExtensionInfo
		volume      []ExtensionInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := r.lister.Installed(gctx)
		installed = ids
		return err
	})
	g.Go(func() error {
		prepackaged = r.scan(r.imageDir)
		return nil
	})
	g.Go(func() error {
		volume = r.scan(r.installer.VolumeDir)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Plan{}, err
	}

	r.logger.Info("extension inventory",
		slog.Int("installed", len(installed)),
		slog.Int("prepackaged", len(prepackaged)),
		slog.Int("volume", len(volume)),
	)
	return NewPlan(installed, prepackaged, volume), nil
}

// scan treats an unreadable directory as empty; the volume is absent on a
// first start.
func (r *Reconciler) scan(dir string) []ExtensionInfo {
	exts, err := ScanDirectory(dir, r.skipped)
	if err != nil {
		r.logger.Warn("cannot read extensions directory", slog.String("dir", dir), slog.String("error", err.Error()))
		return nil
	}
	return exts
}

func (r *Reconciler) skipped(path string, err error) {
	r.logger.Warn("skipping extension folder", slog.String("path", path), slog.String("error", err.Error()))
}

// Run performs one reconciliation pass. It returns the identifiers that were
// installed.
func (r *Reconciler) Run(ctx context.Context) ([]string, error) {
	if r.appType == "" {
		r.logger.Debug("not running in a SageMaker app, skipping extension sync")
		return nil, nil
	}

	plan, err := r.Inventory(ctx)
	if err != nil {
		r.logger.OperationFailed("extension inventory", err)
		_ = r.events.Error(logging.CategoryExtSync, "inventory_failed", err.Error(), nil)
		return nil, err
	}
	if len(plan.Unsynced) == 0 {
		return nil, nil
	}
	_ = r.events.Info(logging.CategoryExtSync, "unsynced_found", "", map[string]any{
		"unsynced": plan.UnsyncedVersions(),
	})

	choice, err := r.window.ShowWarning(ctx, host.Message{
		Text:    WarningMessage,
		Buttons: []string{ButtonSynchronize, ButtonDismiss},
	})
	if err != nil || choice != ButtonSynchronize {
		return nil, err
	}

	items := make([]host.PickItem, 0, len(plan.Unsynced))
	for _, c := range plan.Unsynced {
		item := host.PickItem{Label: c.Extension.Identifier()}
		if v := c.CurrentVersion(); v != "" {
			item.Description = "Currently installed version: " + v
		}
		items = append(items, item)
	}
	selected, err := r.window.PickMany(ctx, PickPlaceholder, items)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, nil
	}

	var done []string
	for _, item := range selected {
		c, ok := plan.Lookup(item.Label)
		if !ok {
			continue
		}
		if r.install(ctx, c) {
			done = append(done, item.Label)
		}
	}
	if err := r.installer.RefreshMetadata(); err != nil {
		r.logger.OperationFailed("refresh extension metadata", err)
	}

	reload, err := r.window.ShowInfo(ctx, host.Message{
		Text:    ReloadMessage,
		Modal:   true,
		Buttons: []string{ButtonReload},
	})
	if err != nil {
		return done, err
	}
	if reload == ButtonReload {
		return done, r.window.ReloadWindow(ctx)
	}
	return done, nil
}

// install reports failures to the user and carries on with the next pick.
func (r *Reconciler) install(ctx context.Context, c Candidate) bool {
	id := c.Extension.Identifier()
	log := r.logger.WithExtension(id)
	ctx, span := observability.StartSpan(ctx, "extsync.install")
	defer span.End()
	observability.SetAttributes(ctx, observability.AttrExtensionID.String(id))

	if err := r.installer.Install(c.Extension, c.Current); err != nil {
		observability.RecordError(ctx, err)
		observability.ExtensionInstalls.WithLabelValues("failure").Inc()
		log.OperationFailed("install extension", err)
		_ = r.events.Error(logging.CategoryExtSync, "install_failed", err.Error(), map[string]any{"extension": id})
		if _, werr := r.window.ShowError(ctx, host.Message{Text: fmt.Sprintf("Could not install extension %s", id)}); werr != nil {
			log.OperationFailed("show install error", werr)
		}
		return false
	}

	observability.ExtensionInstalls.WithLabelValues("success").Inc()
	log.ExtensionInstalled(id, c.CurrentVersion())
	_ = r.events.Info(logging.CategoryExtSync, "installed", "", map[string]any{
		"extension": id,
		"previous":  c.CurrentVersion(),
	})
	return true
}
