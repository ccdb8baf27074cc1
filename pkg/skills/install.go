// Package skills installs selected skills into a project: one flattened
// directory per skill containing the skill document and a metadata file with
// a forkedFrom provenance record pointing back at the library entry.
package skills

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/skillforge/pkg/logger"
	"github.com/jingkaihe/skillforge/pkg/matrix"
)

// MetadataFileName is the provenance metadata file written next to each
// installed skill document.
const MetadataFileName = "metadata.yaml"

// ForkedFrom records where an installed skill was forked from.
type ForkedFrom struct {
	SkillID     string `yaml:"skillId"`
	ContentHash string `yaml:"contentHash"`
	Date        string `yaml:"date"`
}

// Metadata is the per-skill metadata written at install time.
type Metadata struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Category    string     `yaml:"category"`
	ForkedFrom  ForkedFrom `yaml:"forkedFrom"`
}

// Installer copies skills from a loaded matrix into a project skills
// directory.
type Installer struct {
	matrix *matrix.Matrix
	now    func() time.Time
}

// NewInstaller creates an installer over the given matrix.
func NewInstaller(m *matrix.Matrix) *Installer {
	return &Installer{matrix: m, now: time.Now}
}

// InstallAll installs the given skill ids under skillsDir, one flattened
// subdirectory per skill. Ids unknown to the matrix are logged and skipped,
// not failed, so a stale config cannot abort an install. Copies run
// concurrently; each skill is keyed by its own id and owns its target
// directory. Returns the sorted ids actually installed.
func (i *Installer) InstallAll(ctx context.Context, skillIDs []string, skillsDir string) ([]string, error) {
	if err := os.MkdirAll(skillsDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create skills directory")
	}

	var (
		mu        sync.Mutex
		installed []string
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range skillIDs {
		g.Go(func() error {
			skill, ok := i.matrix.Skill(id)
			if !ok {
				logger.G(gctx).WithField("skill", id).Warn("skill not found in library, skipping")
				return nil
			}

			if err := i.installOne(skill, filepath.Join(skillsDir, id)); err != nil {
				return errors.Wrapf(err, "failed to install skill %q", id)
			}

			mu.Lock()
			installed = append(installed, id)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(installed)
	return installed, nil
}

// installOne copies the skill directory and writes the provenance metadata.
// Re-installs overwrite the previous copy; the operation is idempotent.
func (i *Installer) installOne(skill *matrix.Skill, targetDir string) error {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create skill directory")
	}

	if err := copyDir(skill.Directory, targetDir); err != nil {
		return err
	}

	meta := Metadata{
		ID:          skill.ID,
		Name:        skill.Name,
		Description: skill.Description,
		Category:    skill.Category,
		ForkedFrom: ForkedFrom{
			SkillID:     skill.ID,
			ContentHash: ContentHash(skill.Content),
			Date:        i.now().UTC().Format("2006-01-02"),
		},
	}

	out, err := yaml.Marshal(meta)
	if err != nil {
		return errors.Wrap(err, "failed to marshal skill metadata")
	}
	return errors.Wrap(
		os.WriteFile(filepath.Join(targetDir, MetadataFileName), out, 0o644),
		"failed to write skill metadata")
}

// ContentHash returns the sha256 hex digest of a skill document body, used
// in forkedFrom provenance records.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
