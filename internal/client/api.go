package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"paperless/internal/model"
)

// RegisterInput is a new employee account.
type RegisterInput struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
}

type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type documentResponse struct {
	Message  string          `json:"message"`
	Document *model.Document `json:"document"`
}

type documentListResponse struct {
	Documents []model.Document `json:"documents"`
}

// PrintResult is the answer to a print request.
type PrintResult struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// Health is the server liveness report.
type Health struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      float64   `json:"uptime"`
	Environment string    `json:"environment"`
}

// DocumentQuery filters a document listing. UserID is only honoured for
// bosses.
type DocumentQuery struct {
	UserID   string
	Category string
	Status   string
}

// UploadInput is a file to upload with optional metadata.
type UploadInput struct {
	FileName string
	Body     io.Reader
	Title    string
	Category string
	Tags     []string
}

// DocumentUpdate edits metadata. Nil fields are left unchanged.
type DocumentUpdate struct {
	Title    *string  `json:"title,omitempty"`
	Category *string  `json:"category,omitempty"`
	Tags     []string `json:"tags"`
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Register creates an account and logs it in.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	return c.authenticate(ctx, "/auth/register", in)
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) authenticate(ctx context.Context, path string, payload any) (*model.User, error) {
	body, err := jsonBody(payload)
	if err != nil {
		return nil, err
	}
	var res authResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: "application/json",
		anonymous:   true,
	}, &res)
	if err != nil {
		return nil, err
	}
	if err := c.session.Establish(res.Token, res.User); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Logout revokes the token on the server when possible and always purges
// the local session.
func (c *Client) Logout(ctx context.Context) error {
	if c.session.Authenticated() {
		_ = c.do(ctx, request{method: http.MethodPost, path: "/auth/logout"}, nil)
	}
	return c.session.Purge()
}

// Refresh reloads the current user from the server.
func (c *Client) Refresh(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me"}, &user); err != nil {
		return nil, err
	}
	if err := c.session.SetUser(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Users lists every account. Boss only.
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/users"}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Documents lists documents newest first.
func (c *Client) Documents(ctx context.Context, q DocumentQuery) ([]model.Document, error) {
	params := url.Values{}
	if q.UserID != "" {
		params.Set("userId", q.UserID)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	path := "/documents"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var res documentListResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &res); err != nil {
		return nil, err
	}
	if res.Documents == nil {
		res.Documents = []model.Document{}
	}
	return res.Documents, nil
}

// Document fetches one document.
func (c *Client) Document(ctx context.Context, id string) (*model.Document, error) {
	var res documentResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: docPath(id, "")}, &res); err != nil {
		return nil, err
	}
	return res.Document, nil
}

// Upload sends a file as multipart form data.
func (c *Client) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	if in.Body == nil || in.FileName == "" {
		return nil, errors.New("no file selected")
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"title":    in.Title,
		"category": in.Category,
		"tags":     strings.Join(in.Tags, ","),
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(in.FileName)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(in.FileName)))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, in.Body); err != nil {
		return nil, fmt.Errorf("read %s: %w", in.FileName, err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var res documentResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/documents/upload",
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.Document, nil
}

// UpdateDocument edits title, category or tags.
func (c *Client) UpdateDocument(ctx context.Context, id string, in DocumentUpdate) (*model.Document, error) {
	body, err := jsonBody(in)
	if err != nil {
		return nil, err
	}
	var doc model.Document
	err = c.do(ctx, request{
		method:      http.MethodPatch,
		path:        docPath(id, ""),
		body:        body,
		contentType: "application/json",
	}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument removes a document and its file.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: docPath(id, "")}, nil)
}

// Download streams the file into w and returns the server's file name.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) (string, int64, error) {
	resp, err := c.send(ctx, request{method: http.MethodGet, path: docPath(id, "/download")})
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	name := id
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = filepath.Base(params["filename"])
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return name, n, fmt.Errorf("download %s: %w", id, err)
	}
	return name, n, nil
}

// Approve records a boss decision, "approved" or "rejected".
func (c *Client) Approve(ctx context.Context, id, status, comments string) (*model.Document, error) {
	body, err := jsonBody(map[string]string{"status": status, "comments": comments})
	if err != nil {
		return nil, err
	}
	var res documentResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        docPath(id, "/approve"),
		body:        body,
		contentType: "application/json",
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.Document, nil
}

// Print asks the server to print an approved document.
func (c *Client) Print(ctx context.Context, id string) (*PrintResult, error) {
	var res PrintResult
	if err := c.do(ctx, request{method: http.MethodGet, path: docPath(id, "/print")}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Health checks server liveness. It needs no session.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var res Health
	if err := c.do(ctx, request{method: http.MethodGet, path: "/health", root: true, anonymous: true}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func docPath(id, suffix string) string {
	return "/documents/" + url.PathEscape(id) + suffix
}
