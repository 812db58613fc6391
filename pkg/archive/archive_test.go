package archive

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, entries map[string]string) string {
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

	fs := afero.NewOsFs()
	path := afero.GetTempDir(fs, "") + "/archive_test.zip"
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0o644))
	return path
}

func TestValidateRejectsPathTraversal(t *testing.T) {
	path := buildZip(t, map[string]string{
		"../evil.sh":      "#!/bin/sh\n",
		"imsmanifest.xml": "<manifest/>",
	})
	a, err := Open(path, afero.NewMemMapFs())
	require.NoError(t, err)
	defer a.Close()

	vErr := a.Validate()
	require.NotNil(t, vErr)
	require.Equal(t, "UNSAFE_ARCHIVE", string(vErr.Kind))
	require.Contains(t, string(vErr.Sub), "PATH_TRAVERSAL")
}

func TestValidateRejectsTooManyEntries(t *testing.T) {
	entries := make(map[string]string, MaxEntries+1000)
	for i := 0; i < MaxEntries+1000; i++ {
		entries[pad(i)] = "x"
	}
	path := buildZip(t, entries)
	a, err := Open(path, afero.NewMemMapFs())
	require.NoError(t, err)
	defer a.Close()

	vErr := a.Validate()
	require.NotNil(t, vErr)
	require.Equal(t, TooManyEntries, vErr.Sub)
}

func pad(i int) string {
	b := make([]byte, 0, 16)
	b = append(b, []byte("file_")...)
	for i > 0 {
		b = append(b, byte('0'+i%10))
		i /= 10
	}
	b = append(b, []byte(".txt")...)
	return string(b)
}

func TestFindManifestSkipsMacOSXMetadata(t *testing.T) {
	path := buildZip(t, map[string]string{
		"__MACOSX/imsmanifest.xml": "<bogus/>",
		"course/imsmanifest.xml":   "<manifest/>",
	})
	a, err := Open(path, afero.NewMemMapFs())
	require.NoError(t, err)
	defer a.Close()

	found, err := a.FindManifest()
	require.NoError(t, err)
	require.Equal(t, "course/imsmanifest.xml", found)
	require.Equal(t, "course", a.RootPrefix)
}

func TestNormalizeEntryNameRepairsMojibake(t *testing.T) {
	got := NormalizeEntryName("leo╠ün.html")
	require.Equal(t, "león.html", got)
}
