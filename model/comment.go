package model

import (
	"time"

	"github.com/replycorpus/curator/database/db"
)

// CapturedReply is a snapshot of a top-level forum reply at harvest time.
// Everything except Status and LastChecked is immutable once captured.
type CapturedReply struct {
	ID          string
	Author      string
	CreatedAt   time.Time
	Text        string
	Permalink   string
	Status      Status
	LastChecked time.Time
}

func CapturedReplyFromComment(c db.Comment) (*CapturedReply, error) {
	status, err := StatusFromRemovedCode(c.Removed)
	if err != nil {
		return nil, err
	}
	return &CapturedReply{
		ID:          c.CommentID,
		Author:      c.Author,
		CreatedAt:   time.Unix(c.CreationTime, 0).UTC(),
		Text:        c.CommentText,
		Permalink:   c.CommentPerma,
		Status:      status,
		LastChecked: time.Unix(c.LastChecked, 0).UTC(),
	}, nil
}
