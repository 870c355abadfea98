package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dkarpov/handin/internal/logging"
	"github.com/dkarpov/handin/internal/models"
	"github.com/google/uuid"
)

// HTTPGateway talks to the server over HTTP/JSON with token auth.
// The base URL is fixed at construction; changing the host requires
// building a new gateway (and a fresh login).
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
	log     logging.Logger
}

// NewHTTPGateway builds a gateway for addr ("host:port" or a full URL).
// Timeouts are left to the transport defaults.
func NewHTTPGateway(addr string, tokens TokenSource, log logging.Logger) *HTTPGateway {
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{},
		tokens:  tokens,
		log:     log,
	}
}

func (g *HTTPGateway) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// newAuthRequest is newRequest plus the Authorization header. A missing
// token fails immediately with ErrUnauthenticated; no network call is made.
func (g *HTTPGateway) newAuthRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	token, err := g.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		return nil, ErrUnauthenticated
	}
	req, err := g.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+token)
	return req, nil
}

func (g *HTTPGateway) do(req *http.Request) (*http.Response, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn(req.Context(), "request failed",
			"method", req.Method, "path", req.URL.Path,
			"request_id", req.Header.Get("X-Request-ID"), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// serverMessage pulls a human-readable message out of an error body.
// Django-style bodies use "detail"; plain "message"/"error" keys are
// also accepted.
func serverMessage(body []byte) string {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message", "error"} {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// statusError maps a non-2xx response to the error taxonomy.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthenticated
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return &ServerError{Status: resp.StatusCode, Message: serverMessage(body)}
	}
}

func decodeJSON(resp *http.Response, v any) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func (g *HTTPGateway) Login(ctx context.Context, username, password string) (string, error) {
	body, err := jsonBody(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}
	req, err := g.newRequest(ctx, http.MethodPost, "/auth/login/", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Any rejection of credentials is an auth failure.
		io.Copy(io.Discard, resp.Body)
		return "", ErrUnauthenticated
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return out.Token, nil
}

func (g *HTTPGateway) Logout(ctx context.Context) error {
	req, err := g.newAuthRequest(ctx, http.MethodPost, "/auth/logout/", nil)
	if err != nil {
		return err
	}
	resp, err := g.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func (g *HTTPGateway) CheckToken(ctx context.Context) error {
	req, err := g.newAuthRequest(ctx, http.MethodGet, "/auth/check-token/", nil)
	if err != nil {
		return err
	}
	resp, err := g.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ErrUnauthenticated
	}
	return nil
}

// FindUser looks up the account whose username matches exactly. The server
// route is a substring search, so the result list is filtered here.
func (g *HTTPGateway) FindUser(ctx context.Context, username string) (*models.User, error) {
	req, err := g.newAuthRequest(ctx, http.MethodGet, "/users/like/"+username, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var users []models.User
	if err := decodeJSON(resp, &users); err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

func (g *HTTPGateway) UpdateUser(ctx context.Context, upd models.UserUpdate) (*models.User, error) {
	body, err := jsonBody(upd)
	if err != nil {
		return nil, err
	}
	req, err := g.newAuthRequest(ctx, http.MethodPatch, "/users/edit/", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var user models.User
	if err := decodeJSON(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (g *HTTPGateway) ListAssignments(ctx context.Context) ([]models.Assignment, error) {
	req, err := g.newAuthRequest(ctx, http.MethodGet, "/assignment/list_allowed_student", nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var assignments []models.Assignment
	if err := decodeJSON(resp, &assignments); err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, ErrNotFound
	}
	return assignments, nil
}

func (g *HTTPGateway) GetAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	req, err := g.newAuthRequest(ctx, http.MethodGet, "/assignment/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var assignment models.Assignment
	if err := decodeJSON(resp, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// GetSubmission resolves the submission for a (user, assignment) pair.
// Absence is not an error: a 404, an empty body, or an empty list all mean
// "no submission yet" and yield (nil, nil). Only transport failures and
// auth rejections surface as errors.
func (g *HTTPGateway) GetSubmission(ctx context.Context, userID, assignmentID int64) (*models.Submission, error) {
	path := fmt.Sprintf("/submission/%d/%d", userID, assignmentID)
	req, err := g.newAuthRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return nil, ErrUnauthenticated
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return decodeSubmissionMaybe(body)
}

// decodeSubmissionMaybe turns the loosely-shaped lookup response into a
// tagged result: (sub, nil) when present, (nil, nil) when absent.
func decodeSubmissionMaybe(body []byte) (*models.Submission, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var subs []models.Submission
		if err := json.Unmarshal(trimmed, &subs); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if len(subs) == 0 {
			return nil, nil
		}
		return &subs[0], nil
	}
	var sub models.Submission
	if err := json.Unmarshal(trimmed, &sub); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if sub.ID == 0 {
		return nil, nil
	}
	return &sub, nil
}

func (g *HTTPGateway) ListUserSubmissions(ctx context.Context, userID int64) ([]models.Submission, error) {
	path := fmt.Sprintf("/submission/list_user_submissions/%d/", userID)
	req, err := g.newAuthRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var subs []models.Submission
	if err := decodeJSON(resp, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (g *HTTPGateway) CreateSubmission(ctx context.Context, video models.LocalVideo, comment string, assignmentID int64) (*models.Submission, error) {
	return g.uploadSubmission(ctx, http.MethodPost, "/submission/create/", video, comment, assignmentID)
}

func (g *HTTPGateway) UpdateSubmission(ctx context.Context, submissionID int64, video models.LocalVideo, comment string, assignmentID int64) (*models.Submission, error) {
	path := "/submission/edit/" + strconv.FormatInt(submissionID, 10)
	return g.uploadSubmission(ctx, http.MethodPatch, path, video, comment, assignmentID)
}

// uploadSubmission streams the video as multipart form data with fields
// file, comment and assignment. The body is piped so the file never has to
// fit in memory.
func (g *HTTPGateway) uploadSubmission(ctx context.Context, method, path string, video models.LocalVideo, comment string, assignmentID int64) (*models.Submission, error) {
	f, err := os.Open(video.Path)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	name := video.DisplayName
	if name == "" {
		name = filepath.Base(video.Path)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	// The request must exist before the writer goroutine starts: an early
	// failure here (no token, bad context) would otherwise strand the
	// goroutine on the pipe forever.
	req, err := g.newAuthRequest(ctx, method, path, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	go func() {
		err := func() error {
			if err := mw.WriteField("comment", comment); err != nil {
				return err
			}
			if err := mw.WriteField("assignment", strconv.FormatInt(assignmentID, 10)); err != nil {
				return err
			}
			part, err := mw.CreateFormFile("file", name)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, f); err != nil {
				return err
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	resp, err := g.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := statusError(resp)
		g.log.Warn(ctx, "upload rejected", "method", method, "path", path, "status", resp.StatusCode)
		return nil, err
	}

	var sub models.Submission
	if err := decodeJSON(resp, &sub); err != nil {
		return nil, err
	}
	g.log.Info(ctx, "submission uploaded", "submission_id", sub.ID, "assignment_id", assignmentID)
	return &sub, nil
}

// GetFeedback returns the lecturer feedback for a submission, or (nil, nil)
// when it has not been graded yet. Same absence rule as GetSubmission.
func (g *HTTPGateway) GetFeedback(ctx context.Context, submissionID int64) (*models.Feedback, error) {
	path := "/feedback/submission_feedback/" + strconv.FormatInt(submissionID, 10)
	req, err := g.newAuthRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return nil, ErrUnauthenticated
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var fbs []models.Feedback
		if err := json.Unmarshal(trimmed, &fbs); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if len(fbs) == 0 {
			return nil, nil
		}
		return &fbs[0], nil
	}
	var fb models.Feedback
	if err := json.Unmarshal(trimmed, &fb); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if fb.ID == 0 {
		return nil, nil
	}
	return &fb, nil
}
