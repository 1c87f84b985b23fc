// Package auth is a thin client for the identity provider's OAuth
// client-credentials grant. The provider itself is an external
// collaborator (§6): this package only knows how to ask it for a token and
// how to read access_token back out of the JSON response.
package auth

import (
	"context"
	"encoding/json"

	"github.com/SirWaddles/wickdl/httpclient"
	"github.com/SirWaddles/wickdl/wickerr"
)

const clientCredentialsBody = "grant_type=client_credentials&token_token=eg1"

// TokenResponse mirrors the subset of the identity provider's response body
// this module actually consumes.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// FetchToken performs the client-credentials exchange against identityURL
// using HTTP Basic auth built from clientID/clientSecret, and returns the
// resulting access token.
func FetchToken(ctx context.Context, client *httpclient.Client, identityURL, basicAuth string) (string, error) {
	body, err := client.Post(ctx, httpclient.Request{
		URL:  identityURL,
		Body: []byte(clientCredentialsBody),
		Headers: map[string]string{
			"Content-Type":  "application/x-www-form-urlencoded",
			"Authorization": basicAuth,
		},
	})
	if err != nil {
		return "", err
	}

	var tok TokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", wickerr.Wrap(wickerr.KindParse, err, "decoding token response").WithContext(body)
	}
	if tok.AccessToken == "" {
		return "", wickerr.New(wickerr.KindParse, "token response missing access_token").WithContext(body)
	}

	return tok.AccessToken, nil
}

// BasicAuthHeader builds the "Basic <base64>" Authorization header value
// from a client id/secret pair, matching the identity provider's embedded
// client-credentials scheme (§6).
func BasicAuthHeader(clientID, clientSecret string) string {
	return "Basic " + basicAuthEncode(clientID, clientSecret)
}
