package extsync

import "sort"

// Candidate is a prepackaged extension missing from the installed set.
type Candidate struct {
	Extension ExtensionInfo
	// Current is the installed volume extension with the same name, if any.
	Current *ExtensionInfo
}

// CurrentVersion is the version being replaced, or "" for a fresh install.
func (c Candidate) CurrentVersion() string {
	if c.Current == nil {
		return ""
	}
	return c.Current.Version
}

// Plan is the outcome of comparing the three extension sets.
type Plan struct {
	Prepackaged map[string]ExtensionInfo
	// VolumeByName only holds volume extensions the CLI reports as installed.
	VolumeByName map[string]ExtensionInfo
	// Unsynced is sorted by identifier.
	Unsynced []Candidate
}

// NewPlan compares installed identifiers against the image and volume scans.
// Volume folders the editor does not list are ignored since uninstalls and
// upgrades leave them behind.
func NewPlan(installed []string, prepackaged, volume []ExtensionInfo) Plan {
	have := make(map[string]bool, len(installed))
	for _, id := range installed {
		have[id] = true
	}

	p := Plan{
		Prepackaged:  make(map[string]ExtensionInfo, len(prepackaged)),
		VolumeByName: make(map[string]ExtensionInfo),
	}
	for _, ext := range prepackaged {
		p.Prepackaged[ext.Identifier()] = ext
	}
	for _, ext := range volume {
		if have[ext.Identifier()] {
			p.VolumeByName[ext.Name] = ext
		}
	}

	for id, ext := range p.Prepackaged {
		if have[id] {
			continue
		}
		c := Candidate{Extension: ext}
		if cur, ok := p.VolumeByName[ext.Name]; ok {
			cur := cur
			c.Current = &cur
		}
		p.Unsynced = append(p.Unsynced, c)
	}
	sort.Slice(p.Unsynced, func(i, j int) bool {
		return p.Unsynced[i].Extension.Identifier() < p.Unsynced[j].Extension.Identifier()
	})
	return p
}

// UnsyncedVersions maps each unsynced identifier to the version it replaces.
// Fresh installs map to nil.
func (p Plan) UnsyncedVersions() map[string]*string {
	out := make(map[string]*string, len(p.Unsynced))
	for _, c := range p.Unsynced {
		if c.Current == nil {
			out[c.Extension.Identifier()] = nil
			continue
		}
		v := c.Current.Version
		out[c.Extension.Identifier()] = &v
	}
	return out
}

// Lookup finds the candidate for an identifier.
func (p Plan) Lookup(id string) (Candidate, bool) {
	for _, c := range p.Unsynced {
		if c.Extension.Identifier() == id {
			return c, true
		}
	}
	return Candidate{}, false
}
