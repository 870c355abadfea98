package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/dkarpov/handin/internal/logging"
	"github.com/dkarpov/handin/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// staticTokens is a TokenSource with a fixed token; "" means no session.
type staticTokens string

func (s staticTokens) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

func newTestGateway(t *testing.T, token string, h http.HandlerFunc) (*HTTPGateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPGateway(srv.URL, staticTokens(token), logging.Nop()), srv
}

func TestLogin_ReturnsToken(t *testing.T) {
	var gotBody map[string]string
	g, _ := newTestGateway(t, "", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-xyz"})
	})

	token, err := g.Login(context.Background(), "student42", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "tok-xyz", token)
	require.Equal(t, "student42", gotBody["username"])
	require.Equal(t, "hunter2", gotBody["password"])
}

func TestLogin_NonOKIsAuthError(t *testing.T) {
	g, _ := newTestGateway(t, "", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid credentials"}`, http.StatusBadRequest)
	})

	_, err := g.Login(context.Background(), "student42", "wrong")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticatedCall_MissingTokenShortCircuits(t *testing.T) {
	hits := 0
	g, _ := newTestGateway(t, "", func(w http.ResponseWriter, r *http.Request) {
		hits++
	})

	_, err := g.ListAssignments(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.Zero(t, hits, "no request may reach the server without a token")
}

func TestAuthenticatedCall_SendsTokenHeader(t *testing.T) {
	g, _ := newTestGateway(t, "tok-1", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Token tok-1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, g.CheckToken(context.Background()))
}

func TestCheckToken_RejectedToken(t *testing.T) {
	g, _ := newTestGateway(t, "stale", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	require.ErrorIs(t, g.CheckToken(context.Background()), ErrUnauthenticated)
}

func TestTransportFailure_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing is listening anymore
	g := NewHTTPGateway(srv.URL, staticTokens("tok"), logging.Nop())

	err := g.CheckToken(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFindUser_PicksExactMatch(t *testing.T) {
	g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/like/bob", r.URL.Path)
		json.NewEncoder(w).Encode([]models.User{
			{ID: 1, Username: "bobby"},
			{ID: 2, Username: "bob"},
			{ID: 3, Username: "bobcat"},
		})
	})

	user, err := g.FindUser(context.Background(), "bob")
	require.NoError(t, err)
	require.EqualValues(t, 2, user.ID)
}

func TestFindUser_NoExactMatchIsNotFound(t *testing.T) {
	g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.User{{ID: 1, Username: "bobby"}})
	})

	_, err := g.FindUser(context.Background(), "bob")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUser_PatchesAndDecodes(t *testing.T) {
	g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/users/edit/", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"email":"new@uni.edu"}`, string(body))
		json.NewEncoder(w).Encode(models.User{ID: 42, Username: "student42", Email: "new@uni.edu"})
	})

	user, err := g.UpdateUser(context.Background(), models.UserUpdate{Email: "new@uni.edu"})
	require.NoError(t, err)
	require.Equal(t, "new@uni.edu", user.Email)
}

func TestListAssignments_DecodesList(t *testing.T) {
	due := time.Date(2026, 4, 1, 23, 59, 0, 0, time.UTC)
	want := []models.Assignment{
		{ID: 7, Name: "video essay", Subject: "media studies", DueDate: due, Marks: 100},
	}
	g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/assignment/list_allowed_student", r.URL.Path)
		json.NewEncoder(w).Encode(want)
	})

	got, err := g.ListAssignments(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("assignments mismatch (-want +got):\n%s", diff)
	}
}

func TestListAssignments_EmptyIsNotFound(t *testing.T) {
	g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := g.ListAssignments(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetAssignment_NotFound(t *testing.T) {
	g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := g.GetAssignment(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetSubmission_AbsenceShapes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"404", http.StatusNotFound, `{"detail":"not found"}`},
		{"empty body", http.StatusOK, ``},
		{"json null", http.StatusOK, `null`},
		{"empty list", http.StatusOK, `[]`},
		{"zero object", http.StatusOK, `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			sub, err := g.GetSubmission(context.Background(), 42, 7)
			require.NoError(t, err, "absence is not an error")
			require.Nil(t, sub)
		})
	}
}

func TestGetSubmission_PresentObjectAndList(t *testing.T) {
	want := models.Submission{ID: 501, User: 42, Assignment: 7, Comment: "v1"}

	for _, body := range []string{
		`{"id":501,"user":42,"assignment":7,"comment":"v1"}`,
		`[{"id":501,"user":42,"assignment":7,"comment":"v1"}]`,
	} {
		g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/submission/42/7", r.URL.Path)
			w.Write([]byte(body))
		})
		sub, err := g.GetSubmission(context.Background(), 42, 7)
		require.NoError(t, err)
		require.NotNil(t, sub)
		if diff := cmp.Diff(want, *sub); diff != "" {
			t.Fatalf("submission mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestGetSubmission_AuthRejectionIsNotAbsence(t *testing.T) {
	g, _ := newTestGateway(t, "stale", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := g.GetSubmission(context.Background(), 42, 7)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func writeTempVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "take1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake mp4 payload"), 0o600))
	return path
}

func TestCreateSubmission_MultipartFields(t *testing.T) {
	path := writeTempVideo(t)
	g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/submission/create/", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		require.Equal(t, "v1", r.FormValue("comment"))
		require.Equal(t, "7", r.FormValue("assignment"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "take1.mp4", header.Filename)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "fake mp4 payload", string(data))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Submission{ID: 501, User: 42, Assignment: 7, Comment: "v1"})
	})

	sub, err := g.CreateSubmission(context.Background(), models.LocalVideo{Path: path}, "v1", 7)
	require.NoError(t, err)
	require.EqualValues(t, 501, sub.ID)
}

func TestCreateSubmission_DisplayNameOverridesFilename(t *testing.T) {
	path := writeTempVideo(t)
	g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		require.Equal(t, "final-cut.mp4", header.Filename)
		json.NewEncoder(w).Encode(models.Submission{ID: 501})
	})

	_, err := g.CreateSubmission(context.Background(),
		models.LocalVideo{Path: path, DisplayName: "final-cut.mp4"}, "", 7)
	require.NoError(t, err)
}

func TestUpdateSubmission_PatchesTarget(t *testing.T) {
	path := writeTempVideo(t)
	g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/submission/edit/501", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "v2", r.FormValue("comment"))
		json.NewEncoder(w).Encode(models.Submission{ID: 501, Comment: "v2"})
	})

	sub, err := g.UpdateSubmission(context.Background(), 501, models.LocalVideo{Path: path}, "v2", 7)
	require.NoError(t, err)
	require.Equal(t, "v2", sub.Comment)
}

func TestUpload_ServerMessageSurfaces(t *testing.T) {
	path := writeTempVideo(t)
	g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"detail":"video too large"}`)
	})

	_, err := g.CreateSubmission(context.Background(), models.LocalVideo{Path: path}, "", 7)
	var serr *ServerError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, http.StatusInternalServerError, serr.Status)
	require.Equal(t, "video too large", serr.Message)
}

func TestUpload_MissingFileFailsBeforeRequest(t *testing.T) {
	hits := 0
	g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		hits++
	})

	_, err := g.CreateSubmission(context.Background(),
		models.LocalVideo{Path: filepath.Join(t.TempDir(), "missing.mp4")}, "", 7)
	require.Error(t, err)
	require.Zero(t, hits)
}

func TestListUserSubmissions(t *testing.T) {
	g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/submission/list_user_submissions/42/", r.URL.Path)
		json.NewEncoder(w).Encode([]models.Submission{{ID: 501}, {ID: 502}})
	})

	subs, err := g.ListUserSubmissions(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, subs, 2)
}

func TestGetFeedback_AbsentAndPresent(t *testing.T) {
	g, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/feedback/submission_feedback/501", r.URL.Path)
		http.Error(w, "", http.StatusNotFound)
	})
	fb, err := g.GetFeedback(context.Background(), 501)
	require.NoError(t, err)
	require.Nil(t, fb)

	g2, _ := newTestGateway(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Feedback{ID: 9, Submission: 501, Mark: 87, Comment: "solid work"})
	})
	fb, err = g2.GetFeedback(context.Background(), 501)
	require.NoError(t, err)
	require.NotNil(t, fb)
	require.Equal(t, 87, fb.Mark)
}

func TestServerError_Message(t *testing.T) {
	err := &ServerError{Status: 500, Message: "boom"}
	require.Equal(t, "server error 500: boom", err.Error())
	require.Equal(t, "server error 503", (&ServerError{Status: 503}).Error())
}

func TestUpload_MissingTokenLeavesNoGoroutineBehind(t *testing.T) {
	path := writeTempVideo(t)

	g := NewHTTPGateway("127.0.0.1:0", staticTokens(""), logging.Nop())

	before := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		_, err := g.CreateSubmission(context.Background(), models.LocalVideo{Path: path}, "", 7)
		require.ErrorIs(t, err, ErrUnauthenticated)
	}

	// Give any stray writers a moment to finish before counting.
	deadline := time.Now().Add(time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	require.LessOrEqual(t, runtime.NumGoroutine(), before)
}
