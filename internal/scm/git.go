package scm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"

	"cftrigger/internal/engine"
)

// ErrNotRepository is returned when no .git directory is found
var ErrNotRepository = errors.New("not a git repository")

// Repository is a git checkout on disk reduced to one remote and its current branch
type Repository struct {
	Dir    string
	Remote string

	remoteURL string
	branch    string
}

// Open reads the named remote and the checked-out branch of the checkout at dir
func Open(dir, remote string) (*Repository, error) {
	gitDir, err := findGitDir(dir)
	if err != nil {
		return nil, err
	}

	commonDir, err := findCommonDir(gitDir)
	if err != nil {
		return nil, err
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:        true,
		SkipUnrecognizableLines: true,
	}, filepath.Join(commonDir, "config"))
	if err != nil {
		return nil, fmt.Errorf("failed to read git config: %w", err)
	}

	repo := &Repository{Dir: dir, Remote: remote}
	if section, err := cfg.GetSection(fmt.Sprintf("remote %q", remote)); err == nil {
		repo.remoteURL = section.Key("url").String()
	}

	head, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD: %w", err)
	}
	repo.branch = headBranch(string(head))

	return repo, nil
}

// Detect opens the checkout at dir, falling back to Unsupported when it is not a git checkout
func Detect(dir, remote string) (engine.SourceControl, error) {
	repo, err := Open(dir, remote)
	if errors.Is(err, ErrNotRepository) {
		return Unsupported{}, err
	}
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) Kind() string { return engine.GitKind }

// Remotes returns the configured URL of the selected remote, if any
func (r *Repository) Remotes() []string {
	if r.remoteURL == "" {
		return nil
	}
	return []string{r.remoteURL}
}

// Branches returns the checked-out branch; a detached HEAD has none
func (r *Repository) Branches() []string {
	if r.branch == "" {
		return nil
	}
	return []string{r.branch}
}

// headBranch parses the content of .git/HEAD
func headBranch(head string) string {
	head = strings.TrimSpace(head)
	ref, ok := strings.CutPrefix(head, "ref:")
	if !ok {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(ref), "refs/heads/")
}

// findGitDir walks up from dir to the nearest .git directory or gitdir file
func findGitDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(abs, ".git")
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return candidate, nil
			}
			return readGitFile(candidate)
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		abs = parent
	}
}

// findCommonDir returns the directory holding the shared config. Linked
// worktrees keep only HEAD in their gitdir and name the main .git in commondir.
func findCommonDir(gitDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(gitDir, "commondir"))
	if errors.Is(err, fs.ErrNotExist) {
		return gitDir, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read commondir: %w", err)
	}
	common := strings.TrimSpace(string(data))
	if !filepath.IsAbs(common) {
		common = filepath.Join(gitDir, common)
	}
	return filepath.Clean(common), nil
}

// readGitFile follows a "gitdir: <path>" pointer used by worktrees and submodules
func readGitFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	target, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "gitdir:")
	if !ok {
		return "", fmt.Errorf("%w: malformed %s", ErrNotRepository, path)
	}
	target = strings.TrimSpace(target)
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return target, nil
}
