//go:build !unix

package uci

import "os/exec"

func setProcessGroup(_ *exec.Cmd) {}

func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
