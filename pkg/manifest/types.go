// Package manifest parses imsmanifest.xml into a typed ManifestTree,
// tolerating the namespace variation across SCORM 1.2, SCORM 2004, and
// xAPI/tincan packages the way the teacher's pkg/epub tolerates OPF
// namespace variation across EPUB 2 and EPUB 3.
package manifest

// Version is the detected SCORM content-packaging generation.
type Version string

const (
	V12   Version = "v12"
	V2004 Version = "v2004"
	XAPI  Version = "xapi"
)

// Objective is a SCORM 2004 sequencing objective attached to an item.
type Objective struct {
	ID                   string
	SatisfiedByMeasure   bool
	MinNormalizedMeasure *float64
}

// Item is one node of an organization's item tree.
type Item struct {
	Identifier    string
	Title         string
	IdentifierRef string
	Visible       bool

	ControlModeChoice            *bool
	ControlModeFlow              *bool
	ControlModeForwardOnly       *bool
	ControlModeConstrainedChoice *bool
	ControlModePreventActivation *bool

	PrimaryObjective    *Objective
	SecondaryObjectives []Objective
	CompletionThreshold *float64

	Children []*Item
}

// Resource names the files backing one or more items.
type Resource struct {
	ID    string
	Type  string
	Href  string
	Files []string
}

// Organization is a top-level item tree.
type Organization struct {
	Identifier string
	Title      string
	Items      []*Item
}

// Metadata is the course-level descriptive metadata.
type Metadata struct {
	Title       string
	Description string
	Language    string
}

// Tree is the parsed manifest: its version tag, course metadata, item
// trees and the flat resource list they reference.
type Tree struct {
	Version              Version
	Metadata             Metadata
	Organizations        []*Organization
	DefaultOrganization  string
	Resources            []*Resource
}

// Title returns the first organization-descendant <title>, matching
// §4.B's "optionally a detected course title" contract, falling back to
// the metadata title.
func (t *Tree) Title() string {
	for _, org := range t.Organizations {
		if org.Title != "" {
			return org.Title
		}
		if title := firstItemTitle(org.Items); title != "" {
			return title
		}
	}
	return t.Metadata.Title
}

func firstItemTitle(items []*Item) string {
	for _, it := range items {
		if it.Title != "" {
			return it.Title
		}
		if title := firstItemTitle(it.Children); title != "" {
			return title
		}
	}
	return ""
}
