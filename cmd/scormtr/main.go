// Command scormtr translates a SCORM/xAPI e-learning package into one
// or more target languages.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "scormtr",
		Short:   "Translate SCORM and xAPI course packages",
		Version: version,
	}
	root.AddCommand(newTranslateCmd())
	return root
}
