package extsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/odvcencio/codeeditor/pkg/extsync/mocks"
	"github.com/odvcencio/codeeditor/pkg/host"
	hostmocks "github.com/odvcencio/codeeditor/pkg/host/mocks"
)

func writeExtension(t *testing.T, dir, publisher, name, version string) ExtensionInfo {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("%s.%s-%s", publisher, name, version))
	require.NoError(t, os.MkdirAll(path, 0o755))
	manifest := fmt.Sprintf(`{"name":%q,"publisher":%q,"version":%q}`, name, publisher, version)
	require.NoError(t, os.WriteFile(filepath.Join(path, "package.json"), []byte(manifest), 0o644))
	return ExtensionInfo{Name: name, Publisher: publisher, Version: version, Path: path}
}

func TestIdentifier(t *testing.T) {
	ext := ExtensionInfo{Name: "python", Publisher: "ms-python", Version: "2024.1.0", Path: "/x/ms-python.python-2024.1.0"}
	assert.Equal(t, "ms-python.python@2024.1.0", ext.Identifier())
	assert.Equal(t, "ms-python.python-2024.1.0", ext.Basename())
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	good := writeExtension(t, dir, "pub", "A", "2")

	// incomplete manifest
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "partial"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "partial", "package.json"), []byte(`{"name":"x"}`), 0o644))
	// no manifest
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))
	// plain file
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extensions.json"), []byte(`[]`), 0o644))
	// dangling link
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "dangling")))

	var skipped []string
	exts, err := ScanDirectory(dir, func(path string, err error) {
		skipped = append(skipped, filepath.Base(path))
	})
	require.NoError(t, err)
	assert.Equal(t, []ExtensionInfo{good}, exts)
	assert.ElementsMatch(t, []string{"partial", "empty", "dangling"}, skipped)
}

func TestScanDirectoryFollowsLinks(t *testing.T) {
	image := t.TempDir()
	volume := t.TempDir()
	ext := writeExtension(t, image, "pub", "A", "2")
	require.NoError(t, os.Symlink(ext.Path, filepath.Join(volume, ext.Basename())))

	exts, err := ScanDirectory(volume, nil)
	require.NoError(t, err)
	require.Len(t, exts, 1)
	assert.Equal(t, "pub.A@2", exts[0].Identifier())
}

func TestScanDirectoryMissing(t *testing.T) {
	_, err := ScanDirectory(filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func TestParseListing(t *testing.T) {
	got := parseListing("pub.A@1\n\n  pub.B@3  \n")
	assert.Equal(t, []string{"pub.A@1", "pub.B@3"}, got)
	assert.Nil(t, parseListing(""))
}

func TestNewPlan(t *testing.T) {
	pre := []ExtensionInfo{
		{Name: "A", Publisher: "pub", Version: "2", Path: "/image/pub.A-2"},
		{Name: "B", Publisher: "pub", Version: "1", Path: "/image/pub.B-1"},
	}
	volume := []ExtensionInfo{
		{Name: "A", Publisher: "pub", Version: "1", Path: "/pv/pub.A-1"},
		{Name: "B", Publisher: "pub", Version: "1", Path: "/pv/pub.B-1"},
	}

	t.Run("volume version is reported when installed", func(t *testing.T) {
		plan := NewPlan([]string{"pub.A@1", "pub.B@1"}, pre, volume)
		one := "1"
		assert.Equal(t, map[string]*string{"pub.A@2": &one}, plan.UnsyncedVersions())
		c, ok := plan.Lookup("pub.A@2")
		require.True(t, ok)
		assert.Equal(t, "1", c.CurrentVersion())
	})

	t.Run("stale volume folders are ignored", func(t *testing.T) {
		plan := NewPlan(nil, pre, volume)
		assert.Equal(t, map[string]*string{"pub.A@2": nil, "pub.B@1": nil}, plan.UnsyncedVersions())
		assert.Empty(t, plan.VolumeByName)
		assert.Equal(t, "pub.A@2", plan.Unsynced[0].Extension.Identifier())
		assert.Equal(t, "pub.B@1", plan.Unsynced[1].Extension.Identifier())
	})

	t.Run("everything installed", func(t *testing.T) {
		plan := NewPlan([]string{"pub.A@2", "pub.B@1"}, pre, volume)
		assert.Empty(t, plan.Unsynced)
		_, ok := plan.Lookup("pub.A@2")
		assert.False(t, ok)
	})
}

func TestInstallerInstall(t *testing.T) {
	image := t.TempDir()
	pv := t.TempDir()
	pre := writeExtension(t, image, "pub", "A", "2")
	old := writeExtension(t, pv, "pub", "A", "1")

	inst := Installer{VolumeDir: pv}
	require.NoError(t, inst.Install(pre, &old))

	target := filepath.Join(pv, pre.Basename())
	link, err := os.Readlink(target)
	require.NoError(t, err)
	assert.Equal(t, pre.Path, link)

	marks, err := inst.ReadObsolete()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"pub.A-1": true, "pub.A-2": false}, marks)

	raw, err := os.ReadFile(filepath.Join(pv, ".obsolete"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"pub.A-1\": true,\n  \"pub.A-2\": false\n}", string(raw))
}

func TestInstallerReplacesExistingTarget(t *testing.T) {
	image := t.TempDir()
	pv := t.TempDir()
	pre := writeExtension(t, image, "pub", "A", "2")

	// stale link to somewhere else
	require.NoError(t, os.Symlink(t.TempDir(), filepath.Join(pv, pre.Basename())))
	require.NoError(t, os.WriteFile(filepath.Join(pv, ".obsolete"), []byte(`{"other-1.0":true}`), 0o644))

	inst := Installer{VolumeDir: pv}
	require.NoError(t, inst.Install(pre, nil))

	link, err := os.Readlink(filepath.Join(pv, pre.Basename()))
	require.NoError(t, err)
	assert.Equal(t, pre.Path, link)

	marks, err := inst.ReadObsolete()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"other-1.0": true, "pub.A-2": false}, marks)
}

func TestInstallerBacksUpMalformedObsolete(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid json", content: `{not json`},
		{name: "null", content: `null`},
		{name: "array", content: `[true]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			image := t.TempDir()
			pv := t.TempDir()
			pre := writeExtension(t, image, "pub", "A", "2")
			current := writeExtension(t, pv, "pub", "A", "1")
			require.NoError(t, os.WriteFile(filepath.Join(pv, ".obsolete"), []byte(tt.content), 0o644))

			inst := Installer{VolumeDir: pv}
			require.NoError(t, inst.Install(pre, &current))

			backup, err := os.ReadFile(filepath.Join(pv, ".obsolete.bak"))
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(backup))

			marks, err := inst.ReadObsolete()
			require.NoError(t, err)
			assert.Equal(t, map[string]bool{"pub.A-1": true, "pub.A-2": false}, marks)
		})
	}
}

func TestInstallerMissingSource(t *testing.T) {
	inst := Installer{VolumeDir: t.TempDir()}
	err := inst.Install(ExtensionInfo{Name: "A", Publisher: "pub", Version: "2", Path: "/does/not/exist"}, nil)
	assert.Error(t, err)
}

func TestRefreshMetadata(t *testing.T) {
	pv := t.TempDir()
	inst := Installer{VolumeDir: pv}
	require.NoError(t, inst.RefreshMetadata())

	index := filepath.Join(pv, "extensions.json")
	require.NoError(t, os.WriteFile(index, []byte(`[]`), 0o644))
	require.NoError(t, inst.RefreshMetadata())
	_, err := os.Stat(index)
	assert.True(t, os.IsNotExist(err))
}

type fixture struct {
	image, pv string
	window    *hostmocks.MockWindow
	lister    *mocks.MockLister
	rec       *Reconciler
}

func newFixture(t *testing.T, appType string) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		image:  t.TempDir(),
		pv:     t.TempDir(),
		window: hostmocks.NewMockWindow(ctrl),
		lister: mocks.NewMockLister(ctrl),
	}
	f.rec = NewReconciler(Options{
		Window:    f.window,
		Lister:    f.lister,
		ImageDir:  f.image,
		VolumeDir: f.pv,
		AppType:   appType,
	})
	return f
}

func TestReconcilerDisabledOutsideSageMaker(t *testing.T) {
	f := newFixture(t, "")
	done, err := f.rec.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, done)
}

func TestReconcilerNothingToDo(t *testing.T) {
	f := newFixture(t, "codeeditor")
	writeExtension(t, f.image, "pub", "A", "2")
	f.lister.EXPECT().Installed(gomock.Any()).Return([]string{"pub.A@2"}, nil)

	done, err := f.rec.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestReconcilerListFailure(t *testing.T) {
	f := newFixture(t, "codeeditor")
	f.lister.EXPECT().Installed(gomock.Any()).Return(nil, fmt.Errorf("stderr"))

	_, err := f.rec.Run(context.Background())
	assert.Error(t, err)
}

func TestReconcilerDismissed(t *testing.T) {
	f := newFixture(t, "codeeditor")
	writeExtension(t, f.image, "pub", "A", "2")
	f.lister.EXPECT().Installed(gomock.Any()).Return(nil, nil)
	f.window.EXPECT().ShowWarning(gomock.Any(), host.Message{
		Text:    WarningMessage,
		Buttons: []string{ButtonSynchronize, ButtonDismiss},
	}).Return(ButtonDismiss, nil)

	done, err := f.rec.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, done)
	_, statErr := os.Lstat(filepath.Join(f.pv, "pub.A-2"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestReconcilerInstallsSelection(t *testing.T) {
	f := newFixture(t, "codeeditor")
	pre := writeExtension(t, f.image, "pub", "A", "2")
	writeExtension(t, f.image, "pub", "B", "5")
	writeExtension(t, f.pv, "pub", "A", "1")
	require.NoError(t, os.WriteFile(filepath.Join(f.pv, "extensions.json"), []byte(`[]`), 0o644))

	f.lister.EXPECT().Installed(gomock.Any()).Return([]string{"pub.A@1"}, nil)
	gomock.InOrder(
		f.window.EXPECT().ShowWarning(gomock.Any(), gomock.Any()).Return(ButtonSynchronize, nil),
		f.window.EXPECT().PickMany(gomock.Any(), PickPlaceholder, []host.PickItem{
			{Label: "pub.A@2", Description: "Currently installed version: 1"},
			{Label: "pub.B@5"},
		}).Return([]host.PickItem{{Label: "pub.A@2"}}, nil),
		f.window.EXPECT().ShowInfo(gomock.Any(), host.Message{
			Text:    ReloadMessage,
			Modal:   true,
			Buttons: []string{ButtonReload},
		}).Return(ButtonReload, nil),
		f.window.EXPECT().ReloadWindow(gomock.Any()).Return(nil),
	)

	done, err := f.rec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"pub.A@2"}, done)

	link, err := os.Readlink(filepath.Join(f.pv, pre.Basename()))
	require.NoError(t, err)
	assert.Equal(t, pre.Path, link)

	marks, err := Installer{VolumeDir: f.pv}.ReadObsolete()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"pub.A-1": true, "pub.A-2": false}, marks)

	_, err = os.Stat(filepath.Join(f.pv, "extensions.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestReconcilerReportsInstallFailure(t *testing.T) {
	f := newFixture(t, "codeeditor")
	pre := writeExtension(t, f.image, "pub", "A", "2")
	f.lister.EXPECT().Installed(gomock.Any()).Return(nil, nil)

	f.window.EXPECT().ShowWarning(gomock.Any(), gomock.Any()).Return(ButtonSynchronize, nil)
	f.window.EXPECT().PickMany(gomock.Any(), PickPlaceholder, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, items []host.PickItem) ([]host.PickItem, error) {
			// source disappears between scan and install
			require.NoError(t, os.RemoveAll(pre.Path))
			return items, nil
		})
	f.window.EXPECT().ShowError(gomock.Any(), host.Message{Text: "Could not install extension pub.A@2"}).Return("", nil)
	f.window.EXPECT().ShowInfo(gomock.Any(), gomock.Any()).Return("", nil)

	done, err := f.rec.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, done)
}
