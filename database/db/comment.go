package db

// Comment mirrors a row of the comments table. Timestamps are epoch seconds
// and removed encodes status as {-1=unknown, 0=live, 1=removed}.
type Comment struct {
	CommentID    string `db:"comment_id"`
	Author       string `db:"author"`
	CreationTime int64  `db:"creation_time"`
	CommentText  string `db:"comment_text"`
	CommentPerma string `db:"comment_perma"`
	Removed      int    `db:"removed"`
	LastChecked  int64  `db:"last_checked"`
}
