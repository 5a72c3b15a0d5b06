// Package notebook downloads a JumpStart notebook, points its cluster cells
// at the user's cluster and opens it.
package notebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/host"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

const (
	// FileName is the name the notebook is saved under in the download dir.
	FileName = "downloaded-notebook.ipynb"

	invalidRegionMessage = "Invalid region format. Region should only contain characters, numbers, and hyphens."
	downloadFailedPrefix = "Error downloading or opening notebook: "
	openFailedPrefix     = "Failed to open notebook: "
)

var regionPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// ValidRegion reports whether region is safe to place in a bucket host name.
func ValidRegion(region string) bool {
	return regionPattern.MatchString(region)
}

// CacheURL is the JumpStart cache location of key in region.
func CacheURL(region, key string) string {
	return fmt.Sprintf("https://jumpstart-cache-prod-%s.s3.%s.amazonaws.com/%s", region, region, key)
}

// Options configure an Opener.
type Options struct {
	Window host.Window
	Client *http.Client
	// Dir defaults to os.TempDir().
	Dir string
	// URL overrides CacheURL.
	URL    func(region, key string) string
	Logger *observability.Logger
}

// Opener fetches and opens notebooks.
type Opener struct {
	opts Options
}

// NewOpener builds an Opener.
func NewOpener(opts Options) *Opener {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Dir == "" {
		opts.Dir = os.TempDir()
	}
	if opts.URL == nil {
		opts.URL = CacheURL
	}
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	return &Opener{opts: opts}
}

// Open downloads key, rewrites cluster cells for clusterID and opens the
// saved copy. It returns the saved path. Failures are also shown to the user.
func (o *Opener) Open(ctx context.Context, key, clusterID, region string) (string, error) {
	if !ValidRegion(region) {
		err := cerrors.New(cerrors.ErrCodeNotebookRegion, "invalid region").
			WithContext("region", region).
			WithUserMessage(invalidRegionMessage)
		o.showError(ctx, invalidRegionMessage)
		return "", err
	}

	path, err := o.fetch(ctx, key, clusterID, region)
	if err != nil {
		o.showError(ctx, downloadFailedPrefix+cerrors.UserMessage(err))
		return "", err
	}

	if o.opts.Window != nil {
		fileURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
		if err := o.opts.Window.OpenExternal(ctx, fileURL); err != nil {
			o.opts.Logger.OperationFailed("open notebook", err)
			o.showError(ctx, openFailedPrefix+err.Error())
			return path, err
		}
	}
	return path, nil
}

func (o *Opener) fetch(ctx context.Context, key, clusterID, region string) (string, error) {
	ctx, span := observability.StartSpan(ctx, "notebook.download")
	defer span.End()
	span.SetAttributes(observability.AttrNotebookRegion.String(region))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.opts.URL(region, key), nil)
	if err != nil {
		return "", cerrors.Wrap(err, cerrors.ErrCodeNotebookDownload, "build notebook request")
	}
	resp, err := o.opts.Client.Do(req)
	if err != nil {
		observability.RecordError(ctx, err)
		return "", cerrors.Wrap(err, cerrors.ErrCodeNotebookDownload, "download notebook").WithRetryable(true)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int(string(observability.AttrNotebookStatus), resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", cerrors.Wrap(err, cerrors.ErrCodeNotebookDownload, "read notebook")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", cerrors.Newf(cerrors.ErrCodeNotebookDownload, "notebook download returned %d", resp.StatusCode).
			WithUserMessage(fmt.Sprintf("Request failed with status %d", resp.StatusCode))
	}

	out, err := Rewrite(body, clusterID, region)
	if err != nil {
		return "", cerrors.Wrap(err, cerrors.ErrCodeNotebookDownload, "rewrite notebook")
	}
	path := filepath.Join(o.opts.Dir, FileName)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", cerrors.Wrap(err, cerrors.ErrCodeNotebookDownload, "save notebook")
	}
	o.opts.Logger.Info("notebook saved")
	return path, nil
}

func (o *Opener) showError(ctx context.Context, text string) {
	if o.opts.Window == nil {
		return
	}
	if _, err := o.opts.Window.ShowError(ctx, host.Message{Text: text}); err != nil {
		o.opts.Logger.OperationFailed("show notebook error", err)
	}
}

// Rewrite replaces the source of cells tagged with jumpStartAlterations.
// A clusterId tag becomes an SSM session cell and a clusterName tag a
// hyperpod connect cell. Other cells and fields pass through.
func Rewrite(raw []byte, clusterID, region string) ([]byte, error) {
	var nb map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nb); err != nil {
		return nil, fmt.Errorf("parse notebook: %w", err)
	}
	var cells []map[string]json.RawMessage
	if rawCells, ok := nb["cells"]; ok {
		if err := json.Unmarshal(rawCells, &cells); err != nil {
			return nil, fmt.Errorf("parse notebook cells: %w", err)
		}
	}

	for _, cell := range cells {
		var meta struct {
			Alterations json.RawMessage `json:"jumpStartAlterations"`
		}
		if m, ok := cell["metadata"]; ok {
			_ = json.Unmarshal(m, &meta)
		}
		if len(meta.Alterations) == 0 {
			continue
		}
		if hasAlteration(meta.Alterations, "clusterId") {
			setSource(cell, []string{
				"%%bash\n",
				fmt.Sprintf("aws ssm start-session --target sagemaker-cluster:%s --region %s", clusterID, region),
			})
		}
		if hasAlteration(meta.Alterations, "clusterName") {
			setSource(cell, []string{fmt.Sprintf("!hyperpod connect-cluster --cluster-name %s", clusterID)})
		}
	}

	if cells != nil {
		encoded, err := encode(cells, "")
		if err != nil {
			return nil, err
		}
		nb["cells"] = encoded
	}
	return encode(nb, "  ")
}

// encode marshals v without HTML escaping, which would mangle code cells.
func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// hasAlteration accepts either a list of tags or a single string.
func hasAlteration(raw json.RawMessage, tag string) bool {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, v := range list {
			if v == tag {
				return true
			}
		}
		return false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.Contains(s, tag)
	}
	return false
}

func setSource(cell map[string]json.RawMessage, source []string) {
	encoded, _ := json.Marshal(source)
	cell["source"] = encoded
	cell["cell_type"] = json.RawMessage(`"code"`)
}
