package gitinfo

import (
	git "github.com/go-git/go-git/v5"
)

// Head returns the repository HEAD commit hash for the working tree at root.
// Best-effort: a missing repository or detached state simply reports ok=false
// and the caller omits the field.
func Head(root string) (commit string, ok bool) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", false
	}
	ref, err := repo.Head()
	if err != nil {
		return "", false
	}
	return ref.Hash().String(), true
}
