package gitlab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMRRef(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    int
		wantErr bool
	}{
		{name: "bare number", ref: "123", want: 123},
		{name: "padded number", ref: "  7 ", want: 7},
		{name: "url", ref: "https://gitlab.com/infra/ndo/-/merge_requests/456", want: 456},
		{name: "url with anchor", ref: "https://gitlab.com/infra/ndo/-/merge_requests/456#note_1", want: 456},
		{name: "zero", ref: "0", wantErr: true},
		{name: "branch name", ref: "feature/stuff", wantErr: true},
		{name: "empty", ref: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMRRef(tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "infra/ndo", "secret", false, true)
}

func TestCurrentUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("PRIVATE-TOKEN"))
		json.NewEncoder(w).Encode(User{Username: "jdoe", Name: "Jane Doe"})
	})

	user, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jdoe", user.Username)
}

func TestCurrentUserUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMergeRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/infra%2Fndo/merge_requests/15", r.URL.EscapedPath())
		json.NewEncoder(w).Encode(MergeRequest{
			IID:          15,
			Title:        "Add tenant",
			State:        "opened",
			MergeStatus:  "cannot_be_merged",
			SourceBranch: "feature/tenant",
			TargetBranch: "main",
			Author:       User{Username: "jdoe", Name: "Jane Doe"},
		})
	})

	mr, err := c.MergeRequest(context.Background(), 15)
	require.NoError(t, err)
	assert.Equal(t, "feature/tenant", mr.SourceBranch)
	assert.True(t, mr.HasMergeConflicts())
}

func TestHasMergeConflicts(t *testing.T) {
	assert.True(t, (&MergeRequest{HasConflicts: true}).HasMergeConflicts())
	assert.True(t, (&MergeRequest{MergeStatus: "cannot_be_merged"}).HasMergeConflicts())
	assert.False(t, (&MergeRequest{MergeStatus: "can_be_merged"}).HasMergeConflicts())
}

func TestPostComment(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/projects/infra%2Fndo/merge_requests/15/notes", r.URL.EscapedPath())
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	err := c.PostComment(context.Background(), 15, "resolved")
	require.NoError(t, err)
	assert.Equal(t, "resolved", got["body"])
}

func TestErrorIncludesBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"404 Project Not Found"}`, http.StatusNotFound)
	})

	_, err := c.Project(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404 Project Not Found")
}
