package forum

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func replyJSON(id string, body string, createdUTC int64, parentRef string) childThing {
	return childThing{
		Kind: KindReply,
		Data: replyData{
			ID:         id,
			Author:     "historian42",
			Body:       body,
			CreatedUTC: float64(createdUTC),
			Permalink:  fmt.Sprintf("/r/history/comments/p1/q/%s/", id),
			ParentID:   parentRef,
		},
	}
}

func listingJSON(t *testing.T, after string, children ...childThing) []byte {
	t.Helper()
	b, err := json.Marshal(thing{
		Kind: "Listing",
		Data: listingData{After: after, Children: children},
	})
	assert.NoError(t, err)
	return b
}

// testServer serves the token endpoint plus the given API handler.
func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "token-abc", TokenType: "bearer", ExpiresIn: 3600})
	})
	mux.HandleFunc("/", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL)
	assert.NoError(t, err)
	return NewClient(Credentials{ClientID: "client-id", ClientSecret: "hush"}, *base, *base, "curator test agent", 2)
}

func TestFetchRecent(t *testing.T) {
	t.Run("pages through the listing, dedupes, and sorts newest-first", func(t *testing.T) {
		client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
			switch r.URL.Query().Get("after") {
			case "":
				w.Write(listingJSON(t, "cursor1",
					replyJSON("c1", "first", 1000, "t3_p1"),
					replyJSON("c2", "second", 3000, "t3_p1"),
				))
			case "cursor1":
				// c2 shifted pages between requests
				w.Write(listingJSON(t, "",
					replyJSON("c2", "second", 3000, "t3_p1"),
					replyJSON("c3", "third", 2000, "t1_c1"),
				))
			default:
				t.Errorf("unexpected cursor %q", r.URL.Query().Get("after"))
			}
		})

		replies, err := client.FetchRecent(context.TODO(), "history", 4)
		assert.NoError(t, err)
		assert.Len(t, replies, 3)
		assert.Equal(t, "c2", replies[0].ID)
		assert.Equal(t, "c3", replies[1].ID)
		assert.Equal(t, "c1", replies[2].ID)
	})

	t.Run("stops at the requested limit", func(t *testing.T) {
		client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write(listingJSON(t, "more",
				replyJSON("c1", "first", 1000, "t3_p1"),
				replyJSON("c2", "second", 2000, "t3_p1"),
			))
		})

		replies, err := client.FetchRecent(context.TODO(), "history", 2)
		assert.NoError(t, err)
		assert.Len(t, replies, 2)
	})

	t.Run("server errors surface as transient", func(t *testing.T) {
		client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.FetchRecent(context.TODO(), "history", 2)
		assert.True(t, IsTransient(err))
	})
}

func TestFetchReply(t *testing.T) {
	t.Run("returns the reply matching the id", func(t *testing.T) {
		client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, infoPath, r.URL.Path)
			assert.Equal(t, "t1_c1", r.URL.Query().Get("id"))
			w.Write(listingJSON(t, "", replyJSON("c1", "an answer", 1000, "t3_p1")))
		})

		raw, err := client.FetchReply(context.TODO(), "c1")
		assert.NoError(t, err)
		assert.Equal(t, "c1", raw.ID)
		assert.Equal(t, "t3_p1", raw.ParentRef)
	})

	t.Run("an empty listing means the id no longer resolves", func(t *testing.T) {
		client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write(listingJSON(t, ""))
		})

		_, err := client.FetchReply(context.TODO(), "gone")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
