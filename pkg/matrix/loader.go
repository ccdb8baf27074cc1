package matrix

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/skillforge/pkg/logger"
)

const (
	// SkillFileName is the canonical document name of a skill directory.
	SkillFileName = "SKILL.md"
	// CatalogFileName holds the domain and category definitions of a library.
	CatalogFileName = "categories.yaml"
	// SkillsDirName is the library subdirectory that holds skill directories.
	SkillsDirName = "skills"
)

type catalogFile struct {
	Domains    []*Domain   `yaml:"domains"`
	Categories []*Category `yaml:"categories"`
}

// Load reads a skill library directory into a Matrix. The library holds a
// categories.yaml catalog and a skills/ tree where every skill is a directory
// containing a SKILL.md with YAML frontmatter.
//
// Individual skills that fail to parse are logged and skipped; a missing or
// invalid catalog and a broken symmetry invariant are load failures.
func Load(ctx context.Context, libraryDir string) (*Matrix, error) {
	catalog, err := loadCatalog(filepath.Join(libraryDir, CatalogFileName))
	if err != nil {
		return nil, err
	}

	skills, err := loadSkills(ctx, filepath.Join(libraryDir, SkillsDirName))
	if err != nil {
		return nil, err
	}

	m := New(skills, catalog.Categories, catalog.Domains)
	if err := m.VerifySymmetry(); err != nil {
		return nil, errors.Wrap(err, "skill library violates relationship symmetry")
	}

	return m, nil
}

func loadCatalog(path string) (*catalogFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalog %s", path)
	}

	var catalog catalogFile
	if err := yaml.Unmarshal(content, &catalog); err != nil {
		return nil, errors.Wrapf(err, "failed to parse catalog %s", path)
	}

	return &catalog, nil
}

func loadSkills(ctx context.Context, skillsDir string) ([]*Skill, error) {
	if _, err := os.Stat(skillsDir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to stat skills directory %s", skillsDir)
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(skillsDir, "**", SkillFileName))
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan skills directory")
	}

	var skills []*Skill
	for _, path := range matches {
		skill, err := ParseSkillFile(path)
		if err != nil {
			logger.G(ctx).WithField("path", path).WithError(err).Warn("skipping unparsable skill")
			continue
		}
		skills = append(skills, skill)
	}

	return skills, nil
}

// ParseSkillFile parses a single SKILL.md document into a Skill. The
// frontmatter carries the identity and relationship fields; the remainder of
// the document becomes the skill content.
func ParseSkillFile(path string) (*Skill, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	frontmatter, body, err := splitFrontmatter(string(content))
	if err != nil {
		return nil, err
	}

	var skill Skill
	if err := yaml.Unmarshal([]byte(frontmatter), &skill); err != nil {
		return nil, errors.Wrap(err, "failed to parse skill frontmatter")
	}

	if skill.ID == "" {
		skill.ID = filepath.Base(filepath.Dir(path))
	}
	if skill.Name == "" {
		return nil, errors.New("skill name is required in frontmatter")
	}
	if skill.Description == "" {
		return nil, errors.New("skill description is required in frontmatter")
	}
	if skill.Category == "" {
		return nil, errors.New("skill category is required in frontmatter")
	}

	skill.Content = body
	skill.Directory = filepath.Dir(path)

	return &skill, nil
}

// splitFrontmatter separates the leading YAML frontmatter block from the
// markdown body.
func splitFrontmatter(content string) (frontmatter, body string, err error) {
	if !strings.HasPrefix(content, "---") {
		return "", "", errors.New("missing frontmatter")
	}

	lines := strings.Split(content, "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return "", "", errors.New("unterminated frontmatter")
	}

	frontmatter = strings.Join(lines[1:end], "\n")
	body = strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\n")
	return frontmatter, body, nil
}
