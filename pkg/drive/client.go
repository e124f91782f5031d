package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2/google"
)

const (
	MimeFolder    = "application/vnd.google-apps.folder"
	MimePDF       = "application/pdf"
	MimeGoogleDoc = "application/vnd.google-apps.document"

	listPageSize   = 1000
	driveAuthScope = "https://www.googleapis.com/auth/drive.readonly"
)

// File is one exportable document handle found in a folder listing.
type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     string `json:"size"` // Drive reports sizes as decimal strings
}

func (f File) SizeBytes() int64 {
	n, _ := strconv.ParseInt(f.Size, 10, 64)
	return n
}

type fileList struct {
	NextPageToken string `json:"nextPageToken"`
	Files         []File `json:"files"`
}

// Client talks to the Drive v3 REST API. Auth is either an API key (public
// folders) or an oauth2 service-account token injected via the http client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	sizeCache  *cache.Cache
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		sizeCache:  cache.New(1*time.Minute, 5*time.Minute),
	}
}

// NewServiceAccountClient builds a Client authorized with a service-account
// JSON key file, for folders that are not public.
func NewServiceAccountClient(ctx context.Context, baseURL, credentialsFile string) (*Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read drive credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, driveAuthScope)
	if err != nil {
		return nil, fmt.Errorf("parse drive credentials: %w", err)
	}
	return NewClient(baseURL, "", conf.Client(ctx)), nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive request %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("drive request %s: %d: %s", path, resp.StatusCode, string(body))
	}
	return resp, nil
}

// ListFolder walks a folder tree with an explicit work queue (no recursion,
// deep nesting is just more queue entries) and returns every PDF and Google
// Doc found. Trashed items are excluded by the query; other mime types are
// skipped. Pagination is handled transparently.
func (c *Client) ListFolder(ctx context.Context, folderID string) ([]File, error) {
	var results []File
	queue := []string{folderID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		pageToken := ""
		for {
			query := url.Values{}
			query.Set("q", fmt.Sprintf("'%s' in parents and trashed = false", current))
			query.Set("pageSize", strconv.Itoa(listPageSize))
			query.Set("fields", "nextPageToken, files(id, name, mimeType, size)")
			if pageToken != "" {
				query.Set("pageToken", pageToken)
			}

			resp, err := c.get(ctx, "/files", query)
			if err != nil {
				return nil, err
			}

			var list fileList
			err = json.NewDecoder(resp.Body).Decode(&list)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("decode drive listing: %w", err)
			}

			for _, f := range list.Files {
				switch f.MimeType {
				case MimeFolder:
					queue = append(queue, f.ID)
				case MimePDF, MimeGoogleDoc:
					results = append(results, f)
				}
			}

			if list.NextPageToken == "" {
				break
			}
			pageToken = list.NextPageToken
		}
	}

	return results, nil
}

// FolderSize sums the remote sizes of every supported file in the folder
// tree. Validation and acquisition both need it, so listings are cached
// briefly.
func (c *Client) FolderSize(ctx context.Context, folderID string) (int64, error) {
	if cached, found := c.sizeCache.Get(folderID); found {
		return cached.(int64), nil
	}

	files, err := c.ListFolder(ctx, folderID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, f := range files {
		total += f.SizeBytes()
	}
	c.sizeCache.Set(folderID, total, cache.DefaultExpiration)
	return total, nil
}

// DownloadFolder materializes every supported file in the folder tree as a
// local PDF inside one temp dir and calls visit with each file handle and
// path. The temp dir is removed when DownloadFolder returns, error or not,
// so visit must finish with each file before returning.
func (c *Client) DownloadFolder(ctx context.Context, folderID string, visit func(f File, path string) error) error {
	files, err := c.ListFolder(ctx, folderID)
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "filechat-drive-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	for _, f := range files {
		path, err := c.downloadFile(ctx, tmpDir, f)
		if err != nil {
			return err
		}
		if err := visit(f, path); err != nil {
			return err
		}
	}
	return nil
}

// downloadFile fetches one file as a PDF. PDFs download directly, Google
// Docs export to PDF. Anything else is fatal: the listing already filters
// by mime type, so an unsupported type here means something slipped through.
func (c *Client) downloadFile(ctx context.Context, tmpDir string, f File) (string, error) {
	var resp *http.Response
	var err error

	switch f.MimeType {
	case MimePDF:
		query := url.Values{}
		query.Set("alt", "media")
		resp, err = c.get(ctx, "/files/"+f.ID, query)
	case MimeGoogleDoc:
		query := url.Values{}
		query.Set("mimeType", MimePDF)
		resp, err = c.get(ctx, "/files/"+f.ID+"/export", query)
	default:
		return "", fmt.Errorf("invalid mime type %q for file %s", f.MimeType, f.ID)
	}
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	path := filepath.Join(tmpDir, f.ID+".pdf")
	dest, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, resp.Body); err != nil {
		return "", fmt.Errorf("download file %s: %w", f.ID, err)
	}
	return path, nil
}
