package rebuild

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/scormtr/scormtr/pkg/extract"
)

func buildZip(t *testing.T, fs afero.Fs, dir string, entries map[string]string) string {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := dir + "/original.zip"
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0o644))
	return path
}

func readZipEntry(t *testing.T, path, name string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("entry %q not found in %s", name, path)
	return ""
}

func TestRebuildLanguageManifestTitle(t *testing.T) {
	fs := afero.NewOsFs()
	dir := t.TempDir()

	manifest := `<?xml version="1.0"?><manifest><metadata><title>Intro Course</title></metadata></manifest>`
	original := buildZip(t, fs, dir, map[string]string{"imsmanifest.xml": manifest})

	scratch := dir + "/scratch"
	require.NoError(t, fs.MkdirAll(scratch, 0o755))
	require.NoError(t, afero.WriteFile(fs, scratch+"/imsmanifest.xml", []byte(manifest), 0o644))

	segs := []extract.Segment{{
		ID:       "manifest_metadata_title",
		Original: "Intro Course",
		Kind:     extract.XMLText,
		Anchor:   extract.Anchor{XPath: "/manifest/metadata/title", Literal: "Intro Course"},
		File:     extract.ManifestFile,
	}}
	result := extract.NewResult(segs)
	translations := extract.TranslationMap{"manifest_metadata_title": "Curso Introductorio"}

	output := dir + "/output.zip"
	stats, err := RebuildLanguage(Options{
		Fs:              fs,
		ScratchDir:      scratch,
		WorkingDir:      dir + "/working",
		OriginalZipPath: original,
		OutputZipPath:   output,
	}, result, translations)
	require.NoError(t, err)
	require.Equal(t, 1, stats.SegmentsApplied)
	require.Equal(t, 0, stats.SegmentsSkipped)

	got := readZipEntry(t, output, "imsmanifest.xml")
	require.Contains(t, got, "<title>Curso Introductorio</title>")

	exists, err := afero.DirExists(fs, dir+"/working")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestRebuildLanguageHTMLFirstOccurrenceCollision(t *testing.T) {
	fs := afero.NewOsFs()
	dir := t.TempDir()

	html := `<p>Hello</p><p>Hello</p>`
	original := buildZip(t, fs, dir, map[string]string{"index.html": html})

	scratch := dir + "/scratch"
	require.NoError(t, fs.MkdirAll(scratch, 0o755))
	require.NoError(t, afero.WriteFile(fs, scratch+"/index.html", []byte(html), 0o644))

	segs := []extract.Segment{
		{ID: "html_index.html_p_0", Original: "Hello", Kind: extract.HTMLText,
			Anchor: extract.Anchor{Tag: "p", Ordinal: 0, Literal: "Hello"}, File: "index.html"},
		{ID: "html_index.html_p_1", Original: "Hello", Kind: extract.HTMLText,
			Anchor: extract.Anchor{Tag: "p", Ordinal: 1, Literal: "Hello"}, File: "index.html"},
	}
	result := extract.NewResult(segs)
	translations := extract.TranslationMap{
		"html_index.html_p_0": "Hola",
		"html_index.html_p_1": "Saludos",
	}

	output := dir + "/output.zip"
	stats, err := RebuildLanguage(Options{
		Fs:              fs,
		ScratchDir:      scratch,
		WorkingDir:      dir + "/working",
		OriginalZipPath: original,
		OutputZipPath:   output,
	}, result, translations)
	require.NoError(t, err)
	require.Equal(t, 2, stats.SegmentsApplied)

	got := readZipEntry(t, output, "index.html")
	require.Equal(t, "<p>Hola</p><p>Saludos</p>", got)
}

func TestApplyRiseSegmentsPreservesKeyOrder(t *testing.T) {
	// Deliberately non-alphabetical key order: a map[string]interface{}
	// round trip through encoding/json would sort these to
	// heading,id,type on re-marshal.
	model := `{"type":"block","id":"abc123","heading":"Welcome"}`
	b64 := base64.StdEncoding.EncodeToString([]byte(model))
	html := []byte(`<script>window.__fetchCourse=function(){return deserialize("` + b64 + `");}</script>`)

	segs := []extract.Segment{
		{ID: "rise_heading", Original: "Welcome", Kind: extract.RiseJSON,
			Anchor: extract.Anchor{JSONPath: "heading", Literal: "Welcome"}, File: "index.html"},
	}
	translations := extract.TranslationMap{"rise_heading": "Bienvenido"}

	out, applied, skipped, err := applyRiseSegments(html, segs, translations)
	require.NoError(t, err)
	require.Equal(t, 1, applied)
	require.Equal(t, 0, skipped)

	b64Out := extractTestB64(t, string(out))
	raw, err := base64.StdEncoding.DecodeString(b64Out)
	require.NoError(t, err)
	require.Equal(t, `{"type":"block","id":"abc123","heading":"Bienvenido"}`, string(raw))
}

func extractTestB64(t *testing.T, html string) string {
	t.Helper()
	const prefix = `deserialize("`
	start := bytes.Index([]byte(html), []byte(prefix))
	require.GreaterOrEqual(t, start, 0)
	start += len(prefix)
	end := bytes.IndexByte([]byte(html)[start:], '"')
	require.GreaterOrEqual(t, end, 0)
	return html[start : start+end]
}
