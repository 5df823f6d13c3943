package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jadhstore/hypeauto/internal/config"
	"github.com/jadhstore/hypeauto/internal/middleware"
	"github.com/jadhstore/hypeauto/internal/model"
	"github.com/jadhstore/hypeauto/internal/redeemer"
	"github.com/jadhstore/hypeauto/internal/scheduler"
	httpserver "github.com/jadhstore/hypeauto/internal/server"
	"github.com/jadhstore/hypeauto/internal/task"
)

const testAPIKey = "test-api-key"

// fakeExecutor 固定结果的执行器，按 PIN 查表决定成败
type fakeExecutor struct {
	results map[string]model.Result
}

func (f *fakeExecutor) Redeem(_ context.Context, req redeemer.Request) model.Result {
	if r, ok := f.results[req.Pin]; ok {
		return r
	}
	return model.Succeed("TestPlayer", "100 Diamantes", 100)
}

// newTestServer 组装完整路由栈（中间件 + 认证 + handler），调度器真实运转
func newTestServer(t *testing.T, exec *fakeExecutor) (http.Handler, *task.Store, *scheduler.Scheduler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.HTTP.APISecretKey = testAPIKey
	cfg.Scheduler.MaxConcurrent = 3
	cfg.Scheduler.RedeemTimeout = 5 * time.Second

	store := task.NewStore()
	sched := scheduler.New(store, exec, cfg.Scheduler)
	sched.Start()
	t.Cleanup(sched.Stop)

	router := httpserver.NewRouter(httpserver.Deps{
		Cfg:       cfg,
		Scheduler: sched,
		Store:     store,
	})
	return router, store, sched
}

func doJSON(router http.Handler, method, path string, body any, withKey bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if withKey {
		req.Header.Set(middleware.APIKeyHeader, testAPIKey)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRedeemRequiresAPIKey(t *testing.T) {
	router, _, _ := newTestServer(t, &fakeExecutor{})

	w := doJSON(router, http.MethodPost, "/redeem", gin.H{
		"pin":             "test-pin-0001",
		"game_account_id": "123456",
	}, false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRedeemQueuedAck(t *testing.T) {
	router, store, _ := newTestServer(t, &fakeExecutor{})

	w := doJSON(router, http.MethodPost, "/redeem", gin.H{
		"pin":             "test-pin-0001",
		"game_account_id": "123456",
		"order_id":        "ORD-1",
	}, true)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		TaskID        string `json:"task_id"`
		Status        string `json:"status"`
		Pin           string `json:"pin"`
		GameAccountID string `json:"game_account_id"`
		OrderID       string `json:"order_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TaskID)
	assert.Equal(t, "queued", resp.Status)
	assert.Equal(t, "test-pin-0001", resp.Pin)
	assert.Equal(t, "123456", resp.GameAccountID)
	assert.Equal(t, "ORD-1", resp.OrderID)

	// 确认回来时立即可查
	_, err := store.Get(resp.TaskID)
	assert.NoError(t, err)
}

func TestRedeemRejectsInvalidPayload(t *testing.T) {
	router, _, _ := newTestServer(t, &fakeExecutor{})

	tests := []struct {
		name string
		body gin.H
	}{
		{"缺少 pin", gin.H{"game_account_id": "123456"}},
		{"缺少 game_account_id", gin.H{"pin": "test-pin-0001"}},
		{"pin 过短", gin.H{"pin": "ab", "game_account_id": "123456"}},
		{"pin 含非法字符", gin.H{"pin": "bad pin here", "game_account_id": "123456"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/redeem", tt.body, true)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRedeemSyncReturnsFullOutcome(t *testing.T) {
	exec := &fakeExecutor{results: map[string]model.Result{
		"fail-pin-0001": model.Fail(model.ErrorInvalidID, "account rejected"),
	}}
	router, _, _ := newTestServer(t, exec)

	t.Run("success path", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/redeem/sync", gin.H{
			"pin":             "sync-pin-0001",
			"game_account_id": "123456",
		}, true)
		require.Equal(t, http.StatusOK, w.Code)

		var out model.Outcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.Equal(t, model.StatusSuccess, out.Status)
		assert.Equal(t, "TestPlayer", out.Nickname)
		assert.Equal(t, 100, out.Diamonds)
		assert.NotEmpty(t, out.RedeemedAt)
		assert.False(t, out.ReturnPin)
	})

	t.Run("failure path carries return_pin", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/redeem/sync", gin.H{
			"pin":             "fail-pin-0001",
			"game_account_id": "123456",
		}, true)
		require.Equal(t, http.StatusOK, w.Code)

		var out model.Outcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.Equal(t, model.StatusFailed, out.Status)
		assert.Equal(t, model.ErrorInvalidID, out.Error)
		assert.Equal(t, "account rejected", out.ErrorMessage)
		assert.True(t, out.ReturnPin)
	})
}

func TestRedeemBatch(t *testing.T) {
	router, _, _ := newTestServer(t, &fakeExecutor{})

	t.Run("ordered acks", func(t *testing.T) {
		reqs := make([]gin.H, 0, 5)
		for i := 0; i < 5; i++ {
			reqs = append(reqs, gin.H{
				"pin":             fmt.Sprintf("batch-pin-%04d", i),
				"game_account_id": "123456",
			})
		}
		w := doJSON(router, http.MethodPost, "/redeem/batch", reqs, true)
		require.Equal(t, http.StatusOK, w.Code)

		var resp []struct {
			TaskID string `json:"task_id"`
			Pin    string `json:"pin"`
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp, 5)
		for i, r := range resp {
			assert.Equal(t, fmt.Sprintf("batch-pin-%04d", i), r.Pin)
			assert.Equal(t, "queued", r.Status)
			assert.NotEmpty(t, r.TaskID)
		}
	})

	t.Run("one invalid entry fails whole batch", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/redeem/batch", []gin.H{
			{"pin": "batch-pin-ok01", "game_account_id": "123456"},
			{"pin": "ab", "game_account_id": "123456"},
		}, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/redeem/batch", []gin.H{}, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetTask(t *testing.T) {
	router, _, sched := newTestServer(t, &fakeExecutor{})

	t.Run("unknown id returns 404", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/task/no-such-task", nil, true)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("terminal task returns outcome", func(t *testing.T) {
		submitted, err := sched.Submit(task.CreateParams{
			Pin:           "query-pin-0001",
			GameAccountID: "123456",
		})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_, err = sched.Wait(ctx, submitted.ID)
		require.NoError(t, err)

		w := doJSON(router, http.MethodGet, "/task/"+submitted.ID, nil, true)
		require.Equal(t, http.StatusOK, w.Code)

		var out model.Outcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.Equal(t, submitted.ID, out.TaskID)
		assert.Equal(t, model.StatusSuccess, out.Status)
		assert.Equal(t, "query-pin-0001", out.Pin)
	})
}

func TestHealthUnauthenticated(t *testing.T) {
	router, _, _ := newTestServer(t, &fakeExecutor{})

	w := doJSON(router, http.MethodGet, "/health", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status        string `json:"status"`
		QueueSize     int    `json:"queue_size"`
		ActiveTasks   int    `json:"active_tasks"`
		MaxConcurrent int    `json:"max_concurrent"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.MaxConcurrent)
}
