package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]interface{}
}

func newGatewayServer(t *testing.T, status int, response interface{}) (*httptest.Server, *[]recordedRequest) {
	t.Helper()

	var requests []recordedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorded := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&recorded.Body)
		}
		requests = append(requests, recorded)

		w.WriteHeader(status)
		if response != nil {
			_ = json.NewEncoder(w).Encode(response)
		}
	}))
	t.Cleanup(server.Close)

	return server, &requests
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	host, err := url.Parse(server.URL)
	require.NoError(t, err)

	return NewClient(host, "test-token")
}

func Test_SendMessage_Posts_To_The_Channel_With_Bearer_Auth(t *testing.T) {
	// Arrange
	server, requests := newGatewayServer(t, http.StatusOK, nil)
	client := newTestClient(t, server)

	// Act
	err := client.SendMessage(context.Background(), "board-1", Text("hello"))

	// Assert
	require.NoError(t, err)
	require.Len(t, *requests, 1)

	request := (*requests)[0]
	require.Equal(t, http.MethodPost, request.Method)
	require.Equal(t, "/channels/board-1/messages", request.Path)
	require.Equal(t, "Bearer test-token", request.Auth)
	require.Equal(t, "hello", request.Body["body"])
}

func Test_CreateChannel_Returns_The_New_Channel_Ref(t *testing.T) {
	// Arrange
	server, requests := newGatewayServer(t, http.StatusOK, map[string]string{"channel_ref": "channel-9"})
	client := newTestClient(t, server)

	// Act
	ref, err := client.CreateChannel(context.Background(), "community-1", "board", VisibilityPublic)

	// Assert
	require.NoError(t, err)
	require.Equal(t, "channel-9", ref)

	request := (*requests)[0]
	require.Equal(t, "/channels", request.Path)
	require.Equal(t, "community-1", request.Body["community_ref"])
	require.Equal(t, "board", request.Body["name"])
	require.Equal(t, "public", request.Body["visibility"])
}

func Test_DeleteChannel_Issues_A_Delete(t *testing.T) {
	// Arrange
	server, requests := newGatewayServer(t, http.StatusOK, nil)
	client := newTestClient(t, server)

	// Act
	err := client.DeleteChannel(context.Background(), "channel-9")

	// Assert
	require.NoError(t, err)

	request := (*requests)[0]
	require.Equal(t, http.MethodDelete, request.Method)
	require.Equal(t, "/channels/channel-9", request.Path)
}

func Test_SetPermissions_Posts_The_Policy(t *testing.T) {
	// Arrange
	server, requests := newGatewayServer(t, http.StatusOK, nil)
	client := newTestClient(t, server)

	// Act
	err := client.SetPermissions(context.Background(), "channel-9", "user-1", PermissionReadWrite)

	// Assert
	require.NoError(t, err)

	request := (*requests)[0]
	require.Equal(t, "/channels/channel-9/permissions", request.Path)
	require.Equal(t, "user-1", request.Body["subject_ref"])
	require.Equal(t, "read-write", request.Body["policy"])
}

func Test_Client_Fails_On_Error_Status(t *testing.T) {
	// Arrange
	server, _ := newGatewayServer(t, http.StatusBadGateway, nil)
	client := newTestClient(t, server)

	// Act
	err := client.SendMessage(context.Background(), "board-1", Text("hello"))

	// Assert
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}
