package forum

import "time"

/*
Wire shapes for the forum's JSON API. Everything is wrapped in a "thing"
envelope whose Kind tags the payload: "Listing" for pages of results, "t1"
for a single reply. Listing pages carry an After cursor which is empty on
the final page.
*/

type thing struct {
	Kind string      `json:"kind"`
	Data listingData `json:"data"`
}

type listingData struct {
	After    string       `json:"after"`
	Children []childThing `json:"children"`
}

type childThing struct {
	Kind string    `json:"kind"`
	Data replyData `json:"data"`
}

type replyData struct {
	ID         string  `json:"id"`
	Author     string  `json:"author"`
	Body       string  `json:"body"`
	CreatedUTC float64 `json:"created_utc"`
	Permalink  string  `json:"permalink"`
	ParentID   string  `json:"parent_id"`
}

func (d replyData) toRawReply() RawReply {
	return RawReply{
		ID:        d.ID,
		Author:    d.Author,
		Body:      d.Body,
		CreatedAt: time.Unix(int64(d.CreatedUTC), 0).UTC(),
		Permalink: d.Permalink,
		ParentRef: d.ParentID,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
