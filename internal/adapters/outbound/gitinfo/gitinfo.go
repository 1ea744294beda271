// Package gitinfo reads commit metadata used to timestamp archives.
package gitinfo

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
)

// GitInfoAdapter implements domain.GitInfo using go-git.
type GitInfoAdapter struct{}

func New() *GitInfoAdapter {
	return &GitInfoAdapter{}
}

func open(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repo: %w", err)
	}
	return repo, nil
}

func (g *GitInfoAdapter) IsGitRepo(dir string) bool {
	_, err := open(dir)
	return err == nil
}

func (g *GitInfoAdapter) CommitHash(dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}

	return head.Hash().String(), nil
}

// CommitTime returns the committer time of HEAD.
func (g *GitInfoAdapter) CommitTime(dir string) (time.Time, error) {
	repo, err := open(dir)
	if err != nil {
		return time.Time{}, err
	}

	head, err := repo.Head()
	if err != nil {
		return time.Time{}, fmt.Errorf("getting HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return time.Time{}, fmt.Errorf("reading commit %s: %w", head.Hash(), err)
	}
	return commit.Committer.When.UTC(), nil
}
