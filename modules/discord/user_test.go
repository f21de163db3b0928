package discord_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guarzo/discordauth/common"
	"github.com/guarzo/discordauth/common/model"
	"github.com/guarzo/discordauth/modules/discord"
)

func bearer(token string) *model.AccessToken {
	return model.NewAccessToken(model.RawAccessToken{
		AccessToken: token, TokenType: "Bearer", ExpiresIn: 3600,
		RefreshToken: "r", Scope: "identify",
	}, nil)
}

func TestUserService_GetCurrentUser(t *testing.T) {
	var gotReq *http.Request
	svc := discord.NewUserService("https://api.example/v10/", &mockHttpClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			gotReq = req
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`{"id":"80351110224678912","username":"nelly","global_name":"Nelly"}`)),
			}, nil
		},
	})

	user, err := svc.GetCurrentUser(context.Background(), bearer("tok1"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.example/v10/users/@me", gotReq.URL.String())
	assert.Equal(t, "Bearer tok1", gotReq.Header.Get("Authorization"))
	assert.Equal(t, &model.User{ID: "80351110224678912", Username: "nelly", GlobalName: "Nelly"}, user)
}

func TestUserService_GetCurrentUser_Unauthorized(t *testing.T) {
	svc := discord.NewUserService("", &mockHttpClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, discord.DefaultAPIBaseURL+"/users/@me", req.URL.String())
			return &http.Response{
				StatusCode: http.StatusUnauthorized,
				Body:       io.NopCloser(bytes.NewBufferString(`{"message": "401: Unauthorized", "code": 0}`)),
			}, nil
		},
	})

	user, err := svc.GetCurrentUser(context.Background(), bearer("expired"))
	assert.Nil(t, user)

	var httpErr *common.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
}

func TestUserService_GetCurrentUser_NoToken(t *testing.T) {
	svc := discord.NewUserService("", &mockHttpClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			t.Fatal("no request expected without a token")
			return nil, nil
		},
	})

	_, err := svc.GetCurrentUser(context.Background(), nil)
	require.Error(t, err)
}
