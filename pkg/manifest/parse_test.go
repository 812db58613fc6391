package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const scorm12Sample = `<?xml version="1.0"?>
<manifest identifier="MANIFEST-1" version="1.0" xmlns="http://www.imsproject.org/xsd/imscp_rootv1p1p2">
  <metadata>
    <schema>ADL SCORM</schema>
    <schemaversion>1.2</schemaversion>
  </metadata>
  <organizations default="ORG-1">
    <organization identifier="ORG-1">
      <title>Curso de Ejemplo</title>
      <item identifier="ITEM-1" identifierref="RES-1">
        <title>Lección 1</title>
      </item>
    </organization>
  </organizations>
  <resources>
    <resource identifier="RES-1" type="webcontent" href="index.html">
      <file href="index.html"/>
    </resource>
  </resources>
</manifest>`

func TestParseScorm12(t *testing.T) {
	tree, warnings, err := Parse([]byte(scorm12Sample))
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, V12, tree.Version)
	require.Len(t, tree.Organizations, 1)
	require.Equal(t, "Curso de Ejemplo", tree.Organizations[0].Title)
	require.Len(t, tree.Organizations[0].Items, 1)
	require.Equal(t, "Lección 1", tree.Organizations[0].Items[0].Title)
	require.Equal(t, "RES-1", tree.Organizations[0].Items[0].IdentifierRef)
	require.Len(t, tree.Resources, 1)
	require.Equal(t, "index.html", tree.Resources[0].Href)
}

const scorm2004Sample = `<?xml version="1.0"?>
<manifest identifier="MANIFEST-1" xmlns:imsss="http://www.imsglobal.org/xsd/imsss">
  <metadata><schemaversion>2004 3rd Edition</schemaversion></metadata>
  <organizations default="ORG-1">
    <organization identifier="ORG-1">
      <item identifier="ITEM-1" identifierref="RES-1">
        <title>Module 1</title>
        <imsss:sequencing>
          <imsss:controlMode choice="true" flow="true"/>
        </imsss:sequencing>
      </item>
    </organization>
  </organizations>
  <resources>
    <resource identifier="RES-1" type="webcontent" href="index.html"/>
  </resources>
</manifest>`

func TestParseScorm2004Sequencing(t *testing.T) {
	tree, _, err := Parse([]byte(scorm2004Sample))
	require.NoError(t, err)
	require.Equal(t, V2004, tree.Version)
	item := tree.Organizations[0].Items[0]
	require.NotNil(t, item.ControlModeChoice)
	require.True(t, *item.ControlModeChoice)
	require.NotNil(t, item.ControlModeFlow)
	require.True(t, *item.ControlModeFlow)
}

func TestParseWarnsOnDanglingIdentifierRef(t *testing.T) {
	const bad = `<manifest><organizations><organization identifier="O"><item identifier="I" identifierref="MISSING"/></organization></organizations><resources/></manifest>`
	_, warnings, err := Parse([]byte(bad))
	require.NoError(t, err)
	require.Len(t, warnings, 1)
}

func TestParseRejectsMalformedXML(t *testing.T) {
	_, _, err := Parse([]byte("<manifest><organizations>"))
	require.Error(t, err)
}
