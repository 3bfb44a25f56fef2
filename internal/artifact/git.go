package artifact

import (
	"bytes"
	"os/exec"
	"strings"

	"callbench/internal/domain"
)

// gitInfo reads commit/branch/dirty provenance from the working tree;
// any git failure degrades to "unknown" rather than aborting the run.
func gitInfo() domain.GitInfo {
	return domain.GitInfo{
		Commit: runGit("rev-parse", "--short", "HEAD"),
		Branch: runGit("rev-parse", "--abbrev-ref", "HEAD"),
		Dirty:  runGit("status", "--porcelain") != "",
	}
}

func runGit(args ...string) string {
	cmd := exec.Command("git", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "unknown"
	}
	return strings.TrimSpace(out.String())
}
