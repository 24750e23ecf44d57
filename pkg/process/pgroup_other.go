//go:build !unix

package process

import (
	"os"
	"os/exec"
)

func setProcessGroup(cmd *exec.Cmd) {}

// killProcessGroup only kills the child. Descendants holding its output are
// cut off by the wait delay.
func killProcessGroup(p *os.Process) error {
	return p.Kill()
}
