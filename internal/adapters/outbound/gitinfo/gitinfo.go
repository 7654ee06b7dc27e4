package gitinfo

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// Adapter implements domain.GitInfo using go-git.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) IsGitRepo(projectRoot string) bool {
	_, err := git.PlainOpen(projectRoot)
	return err == nil
}

func (a *Adapter) CommitHash(projectRoot string) (string, error) {
	repo, err := git.PlainOpen(projectRoot)
	if err != nil {
		return "", fmt.Errorf("opening git repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}
	return head.Hash().String(), nil
}
