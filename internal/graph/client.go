// Package graph is a minimal Microsoft Graph client for persisting
// records into a SharePoint/OneDrive drive. It uses app-only client
// credentials auth and never touches local disk or any database.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL  = "https://graph.microsoft.com/v1.0"
	defaultScope    = "https://graph.microsoft.com/.default"
	tokenURLPattern = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
)

// Settings carries the app registration and drive target.
type Settings struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	DriveID      string
	FolderPath   string
	SiteID       string
}

// Client talks to Microsoft Graph. BaseURL, TokenURL and HTTPClient are
// overridable for tests; New fills in production defaults.
type Client struct {
	Settings   Settings
	BaseURL    string
	TokenURL   string
	HTTPClient *http.Client

	log *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// New creates a Graph client for the configured tenant and drive.
func New(settings Settings, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		Settings:   settings,
		BaseURL:    defaultBaseURL,
		TokenURL:   fmt.Sprintf(tokenURLPattern, settings.TenantID),
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		log:        log,
	}
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// acquireToken returns a cached app-only token, refreshing it when it is
// within a minute of expiry.
func (c *Client) acquireToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.Settings.ClientID},
		"client_secret": {c.Settings.ClientSecret},
		"scope":         {defaultScope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("unmarshal token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || tok.AccessToken == "" {
		reason := tok.ErrorDescription
		if reason == "" {
			reason = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("acquire graph token: %s", reason)
	}

	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}

func (c *Client) resolveDrive(driveID string) string {
	if driveID != "" {
		return driveID
	}
	return c.Settings.DriveID
}

// composePath joins the configured base folder with an optional subfolder
// and filename into one drive-relative path.
func (c *Client) composePath(filename, subfolder string) string {
	var pieces []string
	if base := strings.Trim(c.Settings.FolderPath, "/ "); base != "" {
		pieces = append(pieces, base)
	}
	if sub := strings.Trim(subfolder, "/ "); sub != "" {
		pieces = append(pieces, sub)
	}
	pieces = append(pieces, filename)
	return strings.Join(pieces, "/")
}

func (c *Client) uploadBytes(ctx context.Context, content []byte, path, contentType, driveID string) (string, error) {
	token, err := c.acquireToken(ctx)
	if err != nil {
		return "", err
	}
	drive := c.resolveDrive(driveID)

	uploadURL := fmt.Sprintf("%s/drives/%s/root:/%s:/content", c.BaseURL, drive, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	c.log.Info("uploading document", zap.String("drive", drive), zap.String("path", path))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("upload failed (status %d): %s", resp.StatusCode, string(body))
	}

	var item struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &item); err != nil {
		return "", fmt.Errorf("unmarshal upload response: %w", err)
	}

	c.log.Info("uploaded document", zap.String("path", path), zap.String("item", item.ID))
	return item.ID, nil
}

// StoreJSON persists record as one JSON file at the logical path
// (e.g. "entries/2026-01/<id>.json") under the configured base folder.
// Failures are returned unchanged; there is no retry.
func (c *Client) StoreJSON(ctx context.Context, logicalPath string, record any) (string, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	path := c.composePath(strings.TrimLeft(logicalPath, "/"), "")
	return c.uploadBytes(ctx, payload, path, "application/json", "")
}

// UploadText persists a text document (reports, exports) under the
// configured base folder.
func (c *Client) UploadText(ctx context.Context, content, filename, subfolder, contentType string) (string, error) {
	if contentType == "" {
		contentType = "text/markdown"
	}
	path := c.composePath(filename, subfolder)
	return c.uploadBytes(ctx, []byte(content), path, contentType, "")
}

// DriveItem is the subset of a Graph drive item the service renders.
type DriveItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	WebURL       string    `json:"webUrl"`
	LastModified time.Time `json:"lastModifiedDateTime"`
	Folder       *struct {
		ChildCount int `json:"childCount"`
	} `json:"folder,omitempty"`
	File *struct {
		MimeType string `json:"mimeType"`
	} `json:"file,omitempty"`
}

// IsFolder reports whether the item is a folder.
func (d DriveItem) IsFolder() bool { return d.Folder != nil }

// ListChildren lists items under path in the drive. An empty path lists
// the configured base folder; baseFolder overrides that base when the
// caller browses a non-default drive ("" means drive root).
func (c *Client) ListChildren(ctx context.Context, path, driveID string, baseFolder *string) ([]DriveItem, error) {
	token, err := c.acquireToken(ctx)
	if err != nil {
		return nil, err
	}
	drive := c.resolveDrive(driveID)

	base := strings.Trim(c.Settings.FolderPath, "/ ")
	if baseFolder != nil {
		base = strings.Trim(*baseFolder, "/ ")
	}

	target := base
	if p := strings.TrimLeft(path, "/"); p != "" {
		if base != "" {
			target = base + "/" + p
		} else {
			target = p
		}
	}

	var listURL string
	if target != "" {
		listURL = fmt.Sprintf("%s/drives/%s/root:/%s:/children", c.BaseURL, drive, target)
	} else {
		listURL = fmt.Sprintf("%s/drives/%s/root/children", c.BaseURL, drive)
	}

	var out struct {
		Value []DriveItem `json:"value"`
	}
	if err := c.getJSON(ctx, listURL, token, &out); err != nil {
		return nil, fmt.Errorf("list drive items: %w", err)
	}

	c.log.Info("listed drive items",
		zap.String("drive", drive),
		zap.String("path", target),
		zap.Int("count", len(out.Value)))
	return out.Value, nil
}

// Drive identifies one drive visible to the app registration.
type Drive struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DriveType string `json:"driveType"`
	WebURL    string `json:"webUrl"`
}

// ListDrives returns the drives the app can reach: the configured drive
// plus, when a site is configured, the site's drives.
func (c *Client) ListDrives(ctx context.Context) ([]Drive, error) {
	token, err := c.acquireToken(ctx)
	if err != nil {
		return nil, err
	}

	found := make(map[string]Drive)
	var order []string
	add := func(d Drive) {
		if d.ID == "" {
			return
		}
		if _, ok := found[d.ID]; !ok {
			order = append(order, d.ID)
		}
		found[d.ID] = d
	}

	// The configured drive always shows up, even if site discovery fails.
	var configured Drive
	if err := c.getJSON(ctx, fmt.Sprintf("%s/drives/%s", c.BaseURL, c.Settings.DriveID), token, &configured); err == nil {
		add(configured)
	}

	if c.Settings.SiteID != "" {
		var siteDrives struct {
			Value []Drive `json:"value"`
		}
		url := fmt.Sprintf("%s/sites/%s/drives", c.BaseURL, c.Settings.SiteID)
		if err := c.getJSON(ctx, url, token, &siteDrives); err == nil {
			for _, d := range siteDrives.Value {
				add(d)
			}
		}
	}

	drives := make([]Drive, 0, len(order))
	for _, id := range order {
		drives = append(drives, found[id])
	}
	c.log.Info("discovered drives", zap.Int("count", len(drives)))
	return drives, nil
}

// DownloadItem fetches a drive item's bytes plus its content type and name.
func (c *Client) DownloadItem(ctx context.Context, itemID, driveID string) (content []byte, contentType, name string, err error) {
	token, err := c.acquireToken(ctx)
	if err != nil {
		return nil, "", "", err
	}
	drive := c.resolveDrive(driveID)

	metaURL := fmt.Sprintf("%s/drives/%s/items/%s", c.BaseURL, drive, itemID)
	var meta struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, metaURL, token, &meta); err != nil {
		return nil, "", "", fmt.Errorf("item metadata: %w", err)
	}
	name = meta.Name
	if name == "" {
		name = "download.bin"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metaURL+"/content", nil)
	if err != nil {
		return nil, "", "", fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, "", "", fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", "", fmt.Errorf("download failed (status %d)", resp.StatusCode)
	}

	content, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", "", fmt.Errorf("read download: %w", err)
	}
	contentType = resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.log.Info("downloaded drive item", zap.String("item", itemID), zap.Int("bytes", len(content)))
	return content, contentType, name, nil
}

// HealthCheck verifies that a token can be obtained and the configured
// drive is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	token, err := c.acquireToken(ctx)
	if err != nil {
		return err
	}
	var drive Drive
	url := fmt.Sprintf("%s/drives/%s", c.BaseURL, c.Settings.DriveID)
	if err := c.getJSON(ctx, url, token, &drive); err != nil {
		return fmt.Errorf("drive unreachable: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, url, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graph error (status %d): %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
