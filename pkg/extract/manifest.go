package extract

import (
	"fmt"

	"github.com/scormtr/scormtr/pkg/manifest"
)

// ManifestFile is the sentinel file path used for segments sourced from
// imsmanifest.xml.
const ManifestFile = "imsmanifest.xml"

// ExtractManifest walks a parsed ManifestTree in document order, emitting
// one XML_TEXT segment per non-empty course/organization/item title (and
// the course description), per §4.C.1.
func ExtractManifest(tree *manifest.Tree) []Segment {
	var segs []Segment

	if runeLen(tree.Metadata.Title) >= 2 {
		segs = append(segs, Segment{
			ID:       "manifest_metadata_title",
			Original: tree.Metadata.Title,
			Kind:     XMLText,
			Anchor:   Anchor{XPath: "/manifest/metadata/title", Literal: tree.Metadata.Title},
			File:     ManifestFile,
		})
	}
	if runeLen(tree.Metadata.Description) >= 2 {
		segs = append(segs, Segment{
			ID:       "manifest_metadata_description",
			Original: tree.Metadata.Description,
			Kind:     XMLText,
			Anchor:   Anchor{XPath: "/manifest/metadata/description", Literal: tree.Metadata.Description},
			File:     ManifestFile,
		})
	}

	for _, org := range tree.Organizations {
		if runeLen(org.Title) >= 2 {
			segs = append(segs, Segment{
				ID:       "org_" + org.Identifier + "_title",
				Original: org.Title,
				Kind:     XMLText,
				Anchor: Anchor{
					XPath:   fmt.Sprintf("/manifest/organizations/organization[@identifier=%q]/title", org.Identifier),
					Literal: org.Title,
				},
				File: ManifestFile,
			})
		}
		segs = append(segs, extractItemTitles(org.Items)...)
	}

	return segs
}

func extractItemTitles(items []*manifest.Item) []Segment {
	var segs []Segment
	for _, it := range items {
		if runeLen(it.Title) >= 2 {
			segs = append(segs, Segment{
				ID:       "item_" + it.Identifier + "_title",
				Original: it.Title,
				Kind:     XMLText,
				Anchor: Anchor{
					XPath:   fmt.Sprintf("//item[@identifier=%q]/title", it.Identifier),
					Literal: it.Title,
				},
				File: ManifestFile,
			})
		}
		segs = append(segs, extractItemTitles(it.Children)...)
	}
	return segs
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
