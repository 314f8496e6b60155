package loader

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/abdul-hamid-achik/runspec/packages/spec"
)

// shellAction wraps a command line as a case action. The command runs
// through sh -c with the suite file's directory as working directory;
// a non-zero exit becomes the case failure, with the combined output
// attached.
func shellAction(command string, baseDir string) spec.Action {
	return func() error {
		cmdStr := strings.TrimSpace(command)
		if cmdStr == "" {
			return nil
		}

		cmd := exec.Command("sh", "-c", cmdStr)
		cmd.Dir = baseDir
		cmd.Env = os.Environ()

		output, err := cmd.CombinedOutput()
		if err != nil {
			if len(output) > 0 {
				return fmt.Errorf("command %q failed: %v\noutput: %s", command, err, strings.TrimSpace(string(output)))
			}
			return fmt.Errorf("command %q failed: %w", command, err)
		}
		return nil
	}
}
