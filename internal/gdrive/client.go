// Package gdrive is a minimal Google Drive client: OAuth code exchange
// and upsert of a single named file via multipart upload.
package gdrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/apperr"
)

const (
	defaultTokenURL   = "https://oauth2.googleapis.com/token"
	defaultAPIBase    = "https://www.googleapis.com/drive/v3"
	defaultUploadBase = "https://www.googleapis.com/upload/drive/v3"
	defaultAuthURL    = "https://accounts.google.com/o/oauth2/v2/auth"
)

// Scopes requested for backup: write access to app-created files plus
// read-only metadata for the find-by-name lookup.
const Scopes = "https://www.googleapis.com/auth/drive.file https://www.googleapis.com/auth/drive.metadata.readonly"

// Credentials holds the OAuth client registration.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// TokenSet is the response of an OAuth code exchange.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Client calls the Drive REST API.
type Client struct {
	httpClient *http.Client
	creds      Credentials

	tokenURL   string
	apiBase    string
	uploadBase string
}

// New creates a client with a conservative request timeout.
func New(creds Credentials) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		creds:      creds,
		tokenURL:   defaultTokenURL,
		apiBase:    defaultAPIBase,
		uploadBase: defaultUploadBase,
	}
}

// NewWithEndpoints creates a client against custom endpoints (tests).
func NewWithEndpoints(creds Credentials, tokenURL, apiBase, uploadBase string) *Client {
	c := New(creds)
	c.tokenURL = tokenURL
	c.apiBase = apiBase
	c.uploadBase = uploadBase
	return c
}

// AuthURL returns the consent-screen URL for the offline flow.
func (c *Client) AuthURL() string {
	q := url.Values{
		"client_id":     {c.creds.ClientID},
		"redirect_uri":  {c.creds.RedirectURI},
		"response_type": {"code"},
		"scope":         {Scopes},
		"access_type":   {"offline"},
	}
	return defaultAuthURL + "?" + q.Encode()
}

// ExchangeCode trades an authorization code for a token set.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenSet, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
		"redirect_uri":  {c.creds.RedirectURI},
		"grant_type":    {"authorization_code"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("gdrive: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gdrive: token exchange: %w: %v", apperr.ErrRemoteCallFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gdrive: token exchange: %w: status %d", apperr.ErrRemoteCallFailed, resp.StatusCode)
	}

	var tokens TokenSet
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("gdrive: decode token response: %w", err)
	}
	return &tokens, nil
}

// SaveFile upserts a file by exact name: one existing match is updated
// in place, none creates a new file, and more than one fails with
// apperr.ErrAmbiguousBackupTarget rather than guessing which copy to
// overwrite. Returns the remote file id.
func (c *Client) SaveFile(ctx context.Context, token, name string, content []byte) (string, error) {
	ids, err := c.findByName(ctx, token, name)
	if err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return c.upload(ctx, token, http.MethodPost,
			c.uploadBase+"/files?uploadType=multipart", name, content)
	case 1:
		id, err := c.upload(ctx, token, http.MethodPatch,
			c.uploadBase+"/files/"+url.PathEscape(ids[0])+"?uploadType=multipart", name, content)
		if err != nil {
			return "", err
		}
		if id == "" {
			// Update responses may omit the resource body.
			id = ids[0]
		}
		return id, nil
	default:
		return "", fmt.Errorf("gdrive: %w: %d files named %q", apperr.ErrAmbiguousBackupTarget, len(ids), name)
	}
}

// findByName returns the ids of non-trashed files with the exact name.
func (c *Client) findByName(ctx context.Context, token, name string) ([]string, error) {
	q := url.Values{
		"q": {fmt.Sprintf("name = '%s' and trashed = false", strings.ReplaceAll(name, "'", `\'`))},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiBase+"/files?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("gdrive: build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gdrive: search: %w: %v", apperr.ErrRemoteCallFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gdrive: search: %w: status %d", apperr.ErrRemoteCallFailed, resp.StatusCode)
	}

	var out struct {
		Files []struct {
			ID string `json:"id"`
		} `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("gdrive: decode search response: %w", err)
	}
	ids := make([]string, len(out.Files))
	for i, f := range out.Files {
		ids[i] = f.ID
	}
	return ids, nil
}

func (c *Client) upload(ctx context.Context, token, method, endpoint, name string, content []byte) (string, error) {
	boundary := uuid.NewString()
	meta, _ := json.Marshal(map[string]string{
		"name":     name,
		"mimeType": "application/json",
	})

	var buf bytes.Buffer
	delim := "\r\n--" + boundary + "\r\n"
	buf.WriteString(delim)
	buf.WriteString("Content-Type: application/json\r\n\r\n")
	buf.Write(meta)
	buf.WriteString(delim)
	buf.WriteString("Content-Type: application/json\r\n\r\n")
	buf.Write(content)
	buf.WriteString("\r\n--" + boundary + "--")

	req, err := http.NewRequestWithContext(ctx, method, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("gdrive: build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", fmt.Sprintf(`multipart/related; boundary=%q`, boundary))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gdrive: upload: %w: %v", apperr.ErrRemoteCallFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("gdrive: upload: %w: status %d", apperr.ErrRemoteCallFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gdrive: read upload response: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", nil
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("gdrive: decode upload response: %w", err)
	}
	return out.ID, nil
}
