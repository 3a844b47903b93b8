package solver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/examplan/core/schedule"
	"github.com/trezcool/examplan/core/user"
)

var ctx = context.Background()

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var creds map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["username"] != "admin" || creds["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "tok", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":   true,
			"user": user.User{ID: 1, Username: "admin", Role: user.RoleAdmin},
		})
	}))
	defer srv.Close()
	client := NewClient(srv.URL)

	usr, err := client.Login(ctx, "admin", "secret")
	assert.NoError(t, err)
	assert.Equal(t, "admin", usr.Username)
	assert.True(t, usr.IsAdmin())

	_, err = client.Login(ctx, "admin", "wrong")
	if assert.True(t, IsUnauthorized(err)) {
		assert.EqualError(t, err, "invalid credentials")
	}
}

func TestClient_cookiePersistsAcrossCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "tok", Path: "/", HttpOnly: true})
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"ok":   true,
				"user": user.User{ID: 1, Username: "admin", Role: user.RoleAdmin},
			})
		case "/api/auth/me":
			cookie, err := r.Cookie("auth_token")
			if err != nil || cookie.Value != "tok" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"ok":   true,
				"user": user.User{ID: 1, Username: "admin", Role: user.RoleAdmin},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	client := NewClient(srv.URL)

	_, err := client.Me(ctx)
	assert.True(t, IsUnauthorized(err))

	_, err = client.Login(ctx, "admin", "secret")
	assert.NoError(t, err)

	usr, err := client.Me(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "admin", usr.Username)
}

func TestClient_generate(t *testing.T) {
	id := int64(42)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/schedule", r.URL.Path)

		var req struct {
			Algo   string          `json:"algo"`
			Config schedule.Config `json:"config"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "greedy", req.Algo)
		assert.Len(t, req.Config.Groups, 1)

		writeJSON(w, http.StatusOK, schedule.Result{
			Algorithm:    req.Algo,
			Validation:   schedule.ValidationReport{OK: true, Errors: []string{}},
			Schedule:     []schedule.ScheduledExam{{ExamID: 1, Date: "2025-01-20"}},
			ScheduleID:   &id,
			ScheduleName: "Сессия 2025-01-20 – 2025-01-31",
		})
	}))
	defer srv.Close()
	client := NewClient(srv.URL)

	cfg := schedule.DefaultConfig()
	cfg.Groups = append(cfg.Groups, schedule.Group{ID: 1, Name: "ИВТ-21", Size: 25, ExamIDs: []int{}})

	res, err := client.Generate(ctx, "greedy", cfg)
	assert.NoError(t, err)
	assert.Equal(t, "greedy", res.Algorithm)
	if assert.NotNil(t, res.ScheduleID) {
		assert.Equal(t, int64(42), *res.ScheduleID)
	}
	assert.Len(t, res.Schedule, 1)
}

func TestClient_publish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/schedule/publish", r.URL.Path)

		var req map[string]int64
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(42), req["scheduleId"])
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}))
	defer srv.Close()
	client := NewClient(srv.URL)

	assert.NoError(t, client.Publish(ctx, 42))
}

func TestClient_errorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
		is401   bool
		is403   bool
	}{
		{"401 with message", http.StatusUnauthorized, `{"error": "unauthorized"}`, "unauthorized", true, false},
		{"403 with message", http.StatusForbidden, `{"error": "insufficient privileges"}`, "insufficient privileges", false, true},
		{"500 plain body", http.StatusInternalServerError, "boom", "HTTP 500", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			client := NewClient(srv.URL)

			_, err := client.PublicSchedule(ctx)
			assert.EqualError(t, err, tt.wantMsg)
			assert.Equal(t, tt.is401, IsUnauthorized(err))
			assert.Equal(t, tt.is403, IsForbidden(err))
		})
	}
}

func TestClient_networkFailureIsNotAPIError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")

	_, err := client.PublicSchedule(ctx)
	assert.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.False(t, IsForbidden(err))
}
