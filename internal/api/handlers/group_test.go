package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dtran/focus-rival/internal/api/handlers"
	"github.com/dtran/focus-rival/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupHandler_CreateJoinAndPairs(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, creatorToken := testutil.NewUserBuilder().WithDisplayName("creator").BuildAndAuthenticate(t, ts)
	_, joinerToken := testutil.NewUserBuilder().WithDisplayName("joiner").BuildAndAuthenticate(t, ts)

	resp := doJSON(t, http.MethodPost, ts.APIURL("/groups/"), creatorToken, map[string]string{"name": "deep work club"})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var group handlers.GroupResponse
	testutil.AssertJSONResponse(t, resp, &group)
	assert.Equal(t, "deep work club", group.Name)
	require.NotEmpty(t, group.ID)

	// Creating another group while in one conflicts
	resp = doJSON(t, http.MethodPost, ts.APIURL("/groups/"), creatorToken, map[string]string{"name": "second"})
	testutil.AssertErrorResponse(t, resp, http.StatusConflict, "Already in a group")

	resp = doJSON(t, http.MethodPost, ts.APIURL("/groups/"+group.ID+"/join"), joinerToken, nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	resp = doJSON(t, http.MethodGet, ts.APIURL("/groups/"+group.ID), creatorToken, nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertJSONResponse(t, resp, &group)
	assert.Len(t, group.Members, 2)

	// Two members yields one pair
	resp = doJSON(t, http.MethodGet, ts.APIURL("/groups/"+group.ID+"/pairs"), creatorToken, nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var pairs []handlers.PairResponse
	testutil.AssertJSONResponse(t, resp, &pairs)
	require.Len(t, pairs, 1)
	assert.False(t, pairs[0].IsExtraPair)

	// Regeneration still yields a full pairing set
	resp = doJSON(t, http.MethodPost, ts.APIURL("/groups/"+group.ID+"/pairs/regenerate"), creatorToken, nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertJSONResponse(t, resp, &pairs)
	assert.Len(t, pairs, 1)
}

func TestGroupHandler_Validation(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	resp := doJSON(t, http.MethodPost, ts.APIURL("/groups/"), token, map[string]string{"name": ""})
	testutil.AssertStatusCode(t, resp, http.StatusBadRequest)

	resp = doJSON(t, http.MethodPost, ts.APIURL("/groups/not-a-uuid/join"), token, nil)
	testutil.AssertStatusCode(t, resp, http.StatusBadRequest)

	resp = doJSON(t, http.MethodGet, ts.APIURL("/groups/00000000-0000-0000-0000-000000000000"), token, nil)
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
}
