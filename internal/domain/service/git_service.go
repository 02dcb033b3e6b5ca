package service

import (
	"context"
	"time"
)

// Commit represents a Git commit
type Commit struct {
	Hash        string
	ShortHash   string
	Message     string
	Author      string
	AuthorEmail string
	AuthorDate  time.Time
}

// Subject returns the first line of the commit message
func (c Commit) Subject() string {
	for i := 0; i < len(c.Message); i++ {
		if c.Message[i] == '\n' {
			return c.Message[:i]
		}
	}
	return c.Message
}

// HistoryOptions bounds a history read
type HistoryOptions struct {
	// Recent is how many of the newest commits to return
	Recent int

	// ContributorLimit bounds how many commits are inspected for authors
	ContributorLimit int

	// Since is the start of the trailing window commits are counted in
	Since time.Time
}

// History summarizes the commit log reachable from HEAD
type History struct {
	Last            Commit
	Recent          []Commit
	Contributors    []string
	CommitsInWindow int
}

// GitService defines the read-only Git operations used while scanning
type GitService interface {
	// RepositoryExists checks if a repository exists at the given path
	RepositoryExists(ctx context.Context, repoPath string) (bool, error)

	// ReadHistory walks the log from HEAD, newest first.
	// Returns ErrNoCommits when HEAD does not resolve to a commit.
	ReadHistory(ctx context.Context, repoPath string, opts HistoryOptions) (*History, error)

	// RemoteURL returns the URL of origin, else of the first remote by name
	RemoteURL(ctx context.Context, repoPath string) (string, bool, error)
}
