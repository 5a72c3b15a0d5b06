// Package metadata reads the resource metadata file the platform mounts into
// every space.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/odvcencio/codeeditor/pkg/config"
)

// AdditionalMetadata holds the DataZone identifiers of unified-studio spaces.
type AdditionalMetadata struct {
	DataZoneDomainID     string `json:"DataZoneDomainId,omitempty"`
	DataZoneProjectID    string `json:"DataZoneProjectId,omitempty"`
	DataZoneDomainRegion string `json:"DataZoneDomainRegion,omitempty"`
}

// ResourceMetadata mirrors resource-metadata.json. Every field is optional.
type ResourceMetadata struct {
	AppType            string              `json:"AppType,omitempty"`
	DomainID           string              `json:"DomainId,omitempty"`
	SpaceName          string              `json:"SpaceName,omitempty"`
	ResourceArn        string              `json:"ResourceArn,omitempty"`
	ResourceName       string              `json:"ResourceName,omitempty"`
	AppImageVersion    string              `json:"AppImageVersion,omitempty"`
	AdditionalMetadata *AdditionalMetadata `json:"AdditionalMetadata,omitempty"`
}

// Load reads and decodes path.
func Load(path string) (*ResourceMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta ResourceMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &meta, nil
}

// PortalURL returns the unified-studio project overview link, or "" when the
// space is not a unified-studio space or an identifier is missing.
func PortalURL(meta *ResourceMetadata, serviceName string) string {
	if serviceName != config.UnifiedStudioService {
		return ""
	}
	if meta == nil || meta.AdditionalMetadata == nil {
		return ""
	}
	extra := meta.AdditionalMetadata
	if extra.DataZoneDomainID == "" || extra.DataZoneDomainRegion == "" || extra.DataZoneProjectID == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.sagemaker.%s.on.aws/projects/%s/overview",
		extra.DataZoneDomainID, extra.DataZoneDomainRegion, extra.DataZoneProjectID)
}
