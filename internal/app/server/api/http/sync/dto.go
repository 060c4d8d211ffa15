package sync

import (
	"studysync/internal/domain/sync"
)

// Request/Response структуры для Push
type pushInput struct {
	Body sync.PushRequest
}

type pushOutput struct {
	Body PushResponse
}

type PushResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	sync.PushResponse
}

// Request/Response структуры для Pull
type pullInput struct {
	Body sync.PullRequest
}

type pullOutput struct {
	Body PullResponse
}

type PullResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	sync.PullResponse
}
