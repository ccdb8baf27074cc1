package skills

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillforge/pkg/logger"
)

// ParseRepoAndRef splits an "org/repo@ref" library reference into its repo
// and optional ref parts.
func ParseRepoAndRef(repo string) (string, string) {
	if idx := strings.LastIndex(repo, "@"); idx != -1 {
		return repo[:idx], repo[idx+1:]
	}
	return repo, ""
}

// FetchLibrary clones a remote skill library repository into a temporary
// directory and returns its path. The caller owns the directory and removes
// it when done. Clones are retried with backoff since they are the one
// network-bound step of an install.
func FetchLibrary(ctx context.Context, repo string) (string, error) {
	repoName, ref := ParseRepoAndRef(repo)

	tmpDir, err := os.MkdirTemp("", "skillforge-library-*")
	if err != nil {
		return "", errors.Wrap(err, "failed to create temporary directory")
	}

	cloneURL := repoName
	if !strings.Contains(repoName, "://") && !strings.HasPrefix(repoName, "git@") {
		cloneURL = "https://github.com/" + repoName + ".git"
	}

	args := []string{"clone", "--depth", "1"}
	if ref != "" {
		args = append(args, "--branch", ref, "--single-branch")
	}
	args = append(args, cloneURL, tmpDir)

	err = retry.Do(
		func() error {
			cmd := exec.CommandContext(ctx, "git", args...)
			if output, err := cmd.CombinedOutput(); err != nil {
				return errors.Wrapf(err, "git clone failed: %s", string(output))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithField("attempt", n+1).WithError(err).Warn("retrying library clone")
		}),
	)
	if err != nil {
		os.RemoveAll(tmpDir)
		return "", errors.Wrapf(err, "failed to clone library %q", repoName)
	}

	return tmpDir, nil
}

// InstallLibrary clones a remote skill library and installs it at targetDir,
// replacing whatever library was there. The clone must hold at least one
// skill document; an empty repository aborts before anything is replaced.
func InstallLibrary(ctx context.Context, repo, targetDir string) (int, error) {
	tmpDir, err := FetchLibrary(ctx, repo)
	if err != nil {
		return 0, err
	}
	defer os.RemoveAll(tmpDir)

	skillDirs, err := FindSkillDirs(tmpDir)
	if err != nil {
		return 0, errors.Wrap(err, "failed to scan cloned library")
	}
	if len(skillDirs) == 0 {
		return 0, errors.Errorf("repository %q contains no skills", repo)
	}

	if err := os.RemoveAll(targetDir); err != nil {
		return 0, errors.Wrap(err, "failed to remove previous library")
	}
	if err := os.MkdirAll(filepath.Dir(targetDir), 0o755); err != nil {
		return 0, errors.Wrap(err, "failed to create library parent directory")
	}
	if err := copyDir(tmpDir, targetDir); err != nil {
		return 0, errors.Wrap(err, "failed to copy library into place")
	}

	logger.G(ctx).WithFields(map[string]interface{}{
		"repo":   repo,
		"target": targetDir,
		"skills": len(skillDirs),
	}).Info("installed skill library")
	return len(skillDirs), nil
}

// FindSkillDirs returns every directory under root that contains a SKILL.md.
func FindSkillDirs(root string) ([]string, error) {
	var skillDirs []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && (info.Name() == ".git" || info.Name() == "node_modules") {
			return filepath.SkipDir
		}
		if !info.IsDir() && info.Name() == "SKILL.md" {
			skillDirs = append(skillDirs, filepath.Dir(path))
		}
		return nil
	})
	return skillDirs, err
}
