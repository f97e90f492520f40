package qbo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/policydesk/qbo-relay/internal/relayerr"
)

const (
	intuitAuthURL  = "https://appcenter.intuit.com/connect/oauth2"
	intuitTokenURL = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
)

// AuthCodeURL builds the QuickBooks authorization URL for the accounting
// scope with the given state token. A malformed AuthURL override is a
// configuration error and is reported rather than redirected to.
func (c *Client) AuthCodeURL(state string) (string, error) {
	base := c.cfg.AuthURL
	if base == "" {
		base = intuitAuthURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid authorization URL %q: %w", base, err)
	}
	q := u.Query()
	q.Set("client_id", c.cfg.ClientID)
	q.Set("response_type", "code")
	q.Set("scope", ScopeAccounting)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExchangeCode trades an authorization code for an access token. Any
// failure surfaces as a single auth error; there is no retry.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	tokenURL := c.cfg.TokenURL
	if tokenURL == "" {
		tokenURL = intuitTokenURL
	}

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", c.cfg.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", relayerr.AuthFailed(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", relayerr.AuthFailed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", relayerr.AuthFailed(fmt.Errorf("token request returned status %d; reading body: %w", resp.StatusCode, readErr))
		}
		return "", relayerr.AuthFailed(fmt.Errorf("token request returned status %d: %s", resp.StatusCode, body))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", relayerr.AuthFailed(fmt.Errorf("failed to parse token response: %w", err))
	}
	if token.AccessToken == "" {
		return "", relayerr.AuthFailed(fmt.Errorf("token response missing access_token"))
	}
	return token.AccessToken, nil
}
