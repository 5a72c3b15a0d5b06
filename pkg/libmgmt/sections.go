package libmgmt

import (
	"regexp"
	"strings"

	"github.com/odvcencio/codeeditor/pkg/observability"
)

// Section ids as shown in the library editor.
const (
	SectionJarMaven    = "Jar - Maven Artifacts"
	SectionJarS3       = "Jar - S3 Paths"
	SectionJarDisk     = "Jar - Disk Location Paths"
	SectionJarOther    = "Jar - Other Paths"
	SectionPythonConda = "Python - Conda Packages"
	SectionPythonPyPI  = "Python - PyPI Packages"
	SectionPythonS3    = "Python - S3 Paths"
	SectionPythonDisk  = "Python - Disk Location Paths"
	SectionPythonOther = "Python - Other Paths"
)

// Kind distinguishes the two list types of the conda section.
type Kind int

const (
	KindEntry Kind = iota
	KindChannel
	KindSpec
)

const (
	s3Prefix     = `^s3://.*`
	localPrefix  = `^(file:/|local:/).*`
	otherPrefix  = `^(hdfs://|http://|https://|ftp://).*`
	jarSuffix    = `(\.jar)$`
	pythonSuffix = `(\.py|\.zip|\.egg|\.whl)$`
)

var (
	condaChannel = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	condaSpec    = regexp.MustCompile(`^[a-zA-Z0-9_-]+([>=<]=?[0-9.]+)?$`)
)

// Section describes one editable list.
type Section struct {
	ID          string
	Category    string
	Label       string
	FormatInfo  string
	Placeholder string
	Pattern     *regexp.Regexp
}

var sections = []Section{
	{
		ID: SectionJarMaven, Category: "JAR", Label: "Maven Artifacts",
		FormatInfo:  "Provide the Maven coordinates in the following format: groupId:artifactId:version",
		Placeholder: "groupId:artifactId:version",
		Pattern:     regexp.MustCompile(`^([\w.\-]+):([\w.\-]+):([\w.\-]+)$`),
	},
	{
		ID: SectionJarS3, Category: "JAR", Label: "S3 Paths",
		FormatInfo:  `Provide URLs starting with "s3" for the JAR files`,
		Placeholder: "s3://bucket-name/path/to/file.jar",
		Pattern:     regexp.MustCompile(s3Prefix + jarSuffix),
	},
	{
		ID: SectionJarDisk, Category: "JAR", Label: "Disk Location Paths",
		FormatInfo:  `Provide URLs starting with "file" or "local" for the JAR files`,
		Placeholder: "file:/path/to/file.jar",
		Pattern:     regexp.MustCompile(localPrefix + jarSuffix),
	},
	{
		ID: SectionJarOther, Category: "JAR", Label: "Other Paths",
		FormatInfo:  `Provide URLs to JAR files that begin with one of the following: "hdfs", "http", "https", or "ftp"`,
		Placeholder: "http://domain.com/path/to/file.jar",
		Pattern:     regexp.MustCompile(otherPrefix + jarSuffix),
	},
	{
		ID: SectionPythonConda, Category: "PYTHON", Label: "Conda Packages",
		FormatInfo:  "Provide the package specification supported by Conda",
		Placeholder: "package>=1.0.0",
	},
	{
		ID: SectionPythonPyPI, Category: "PYTHON", Label: "PyPI Packages",
		FormatInfo:  "Provide the requirement specifiers supported by pip",
		Placeholder: "package_name==1.0.0",
	},
	{
		ID: SectionPythonS3, Category: "PYTHON", Label: "S3 Paths",
		FormatInfo:  `Provide URLs for one of the following file types: py, zip, egg, whl. URL must begin with "s3".`,
		Placeholder: "s3://bucket-name/path/to/file.whl",
		Pattern:     regexp.MustCompile(s3Prefix + pythonSuffix),
	},
	{
		ID: SectionPythonDisk, Category: "PYTHON", Label: "Disk Location Paths",
		FormatInfo:  `Provide URLs for one of the following file types: py, zip, egg, whl. URL must begin with "file" or "local".`,
		Placeholder: "file:/path/to/file.whl",
		Pattern:     regexp.MustCompile(localPrefix + pythonSuffix),
	},
	{
		ID: SectionPythonOther, Category: "PYTHON", Label: "Other Paths",
		FormatInfo:  `Provide URLs for one of the following file types: py, zip, egg, whl. URL must begin with "hdfs", "http", "https", or "ftp".`,
		Placeholder: "http://domain.com/path/to/file.whl",
		Pattern:     regexp.MustCompile(otherPrefix + pythonSuffix),
	},
}

// Sections returns every section in display order.
func Sections() []Section {
	return append([]Section(nil), sections...)
}

// LookupSection finds a section by id.
func LookupSection(id string) (Section, bool) {
	for _, s := range sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// Result is the outcome of validating one entry.
type Result struct {
	Valid   bool
	Message string
}

// Validate checks one entry of a section. kind only matters for the conda
// section.
func Validate(sectionID, value string, kind Kind) Result {
	res := validate(sectionID, value, kind)
	outcome := "valid"
	if !res.Valid {
		outcome = "invalid"
	}
	observability.LibraryValidations.WithLabelValues(sectionID, outcome).Inc()
	return res
}

func validate(sectionID, value string, kind Kind) Result {
	if strings.TrimSpace(value) == "" {
		return Result{Message: "This field cannot be empty"}
	}

	if sectionID == SectionPythonConda {
		if kind == KindChannel {
			if condaChannel.MatchString(value) {
				return Result{Valid: true}
			}
			return Result{Message: "Invalid channel name"}
		}
		if condaSpec.MatchString(value) {
			return Result{Valid: true}
		}
		return Result{Message: "Invalid package specification"}
	}

	sec, ok := LookupSection(sectionID)
	if !ok {
		return Result{Message: "Unknown section: " + sectionID}
	}
	if sec.Pattern == nil || sec.Pattern.MatchString(value) {
		return Result{Valid: true}
	}
	return Result{Message: sec.FormatInfo}
}

// Issue is an invalid entry found by ValidateAll.
type Issue struct {
	Section string
	Index   int
	Value   string
	Message string
}

// Entries maps every section id to its entries and their kinds.
func (c *Config) Entries() map[string][]Entry {
	plain := func(values []string) []Entry {
		out := make([]Entry, len(values))
		for i, v := range values {
			out[i] = Entry{Value: v}
		}
		return out
	}
	conda := make([]Entry, 0, len(c.Python.CondaPackages.Channels)+len(c.Python.CondaPackages.PackageSpecs))
	for _, v := range c.Python.CondaPackages.Channels {
		conda = append(conda, Entry{Value: v, Kind: KindChannel})
	}
	for _, v := range c.Python.CondaPackages.PackageSpecs {
		conda = append(conda, Entry{Value: v, Kind: KindSpec})
	}
	return map[string][]Entry{
		SectionJarMaven:    plain(c.Jar.MavenArtifacts),
		SectionJarS3:       plain(c.Jar.S3Paths),
		SectionJarDisk:     plain(c.Jar.LocalPaths),
		SectionJarOther:    plain(c.Jar.OtherPaths),
		SectionPythonConda: conda,
		SectionPythonPyPI:  plain(c.Python.PyPIPackages),
		SectionPythonS3:    plain(c.Python.S3Paths),
		SectionPythonDisk:  plain(c.Python.LocalPaths),
		SectionPythonOther: plain(c.Python.OtherPaths),
	}
}

// Entry is one list value with its conda kind.
type Entry struct {
	Value string
	Kind  Kind
}

// ValidateAll checks every entry of every section, each against its own
// section's rules. Issues come back in section display order.
func ValidateAll(c *Config) []Issue {
	entries := c.Entries()
	var issues []Issue
	for _, sec := range sections {
		for i, e := range entries[sec.ID] {
			if res := Validate(sec.ID, e.Value, e.Kind); !res.Valid {
				issues = append(issues, Issue{Section: sec.ID, Index: i, Value: e.Value, Message: res.Message})
			}
		}
	}
	return issues
}
