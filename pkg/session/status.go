package session

import (
	"github.com/odvcencio/codeeditor/pkg/host"
	"github.com/odvcencio/codeeditor/pkg/metadata"
)

// ShowSpaceStatus puts the space name in the status bar. It does nothing
// when the metadata is unavailable.
func ShowSpaceStatus(window host.Window, meta *metadata.ResourceMetadata) bool {
	if meta == nil || meta.SpaceName == "" {
		return false
	}
	window.SetStatus("Space: "+meta.SpaceName, "")
	return true
}
