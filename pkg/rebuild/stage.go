package rebuild

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// stageWorkingCopy recursively copies scratchDir's contents into
// workingDir so translations are applied to a disposable copy, never
// the validated extraction the next language's rebuild also reads
// from.
func stageWorkingCopy(fs afero.Fs, scratchDir, workingDir string) error {
	return afero.Walk(fs, scratchDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(scratchDir, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(workingDir, rel)

		if info.IsDir() {
			return fs.MkdirAll(dest, 0o755)
		}

		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return err
		}
		if err := fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		return afero.WriteFile(fs, dest, data, info.Mode().Perm())
	})
}
