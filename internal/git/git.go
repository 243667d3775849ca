// Package git bootstraps a repository in a freshly materialized project
// using go-git, so no git binary is required.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// InitialCommitMessage is used for the first commit of a new project.
const InitialCommitMessage = "Initial commit from Specify template"

var (
	ErrAlreadyRepo   = errors.New("already inside a git repository")
	ErrGitInitFailed = errors.New("git initialization failed")
)

// Author identifies who makes the initial commit.
type Author struct {
	Name  string
	Email string
	// Source tells where the identity came from: "env", "config" or "default".
	Source string
}

// IsRepo reports whether path is inside a git working tree, looking at
// parent directories too.
func IsRepo(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context cancelled: %w", err)
	}
	_, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return true, nil
}

// InitWithCommit initializes a repository at path, stages everything not
// ignored and records one commit. It returns the commit hash.
func InitWithCommit(ctx context.Context, path, message string, author Author) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled: %w", err)
	}
	if strings.TrimSpace(message) == "" {
		message = InitialCommitMessage
	}

	repo, err := gogit.PlainInit(path, false)
	if errors.Is(err, gogit.ErrRepositoryAlreadyExists) {
		return "", ErrAlreadyRepo
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrGitInitFailed, err.Error())
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("get worktree: %w", err)
	}
	if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("stage files: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled: %w", err)
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  author.Name,
			Email: author.Email,
			When:  time.Now(),
		},
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", fmt.Errorf("create commit: %w", err)
	}
	return hash.String(), nil
}

// DetectAuthor finds a commit identity: GIT_AUTHOR_NAME/GIT_AUTHOR_EMAIL
// first, then the user's global git config, then a placeholder.
func DetectAuthor() Author {
	return detectAuthor(os.Getenv, loadGlobalUser)
}

func detectAuthor(getenv func(string) string, global func() (string, string)) Author {
	if name := getenv("GIT_AUTHOR_NAME"); name != "" {
		email := getenv("GIT_AUTHOR_EMAIL")
		if email == "" {
			email = "specify@localhost"
		}
		return Author{Name: name, Email: email, Source: "env"}
	}
	if global != nil {
		if name, email := global(); name != "" && email != "" {
			return Author{Name: name, Email: email, Source: "config"}
		}
	}
	return Author{Name: "Specify", Email: "specify@localhost", Source: "default"}
}

func loadGlobalUser() (string, string) {
	cfg, err := config.LoadConfig(config.GlobalScope)
	if err != nil || cfg == nil {
		return "", ""
	}
	return cfg.User.Name, cfg.User.Email
}
