package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"ai-flowchat-be/pkg/flow"
)

func gatewayRegistry(t *testing.T) *flow.Registry {
	t.Helper()
	registry, err := flow.NewRegistry([]*flow.Definition{
		{
			Key:              "LEAVE",
			PermittedActions: []flow.Action{flow.ActionAnswerOnly, flow.ActionCreate},
			ProcessId:        "leave-request-process",
			FieldMapping:     map[string]string{"type": "leave_type"},
		},
		{
			Key:              "HR",
			PermittedActions: []flow.Action{flow.ActionAnswerOnly},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return registry
}

func newHostServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func okIdentity(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(Identity{UserId: "u-1", AccountId: "a-1", DisplayName: "Pat", Email: "pat@host.local"})
}

func TestIsAvailableProbedOnce(t *testing.T) {
	var probes int32
	srv := newHostServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/identity" {
			atomic.AddInt32(&probes, 1)
			okIdentity(w)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	gw := NewHTTPGateway(srv.URL, "token", gatewayRegistry(t), log.New(io.Discard, "", 0))
	for i := 0; i < 5; i++ {
		if !gw.IsAvailable() {
			t.Fatal("expected available host")
		}
	}
	// One probe plus zero extra calls; IsAvailable never re-probes.
	if got := atomic.LoadInt32(&probes); got != 1 {
		t.Fatalf("probe count = %d, want 1", got)
	}
}

func TestIsAvailableFalseWithoutConfig(t *testing.T) {
	gw := NewHTTPGateway("", "", gatewayRegistry(t), log.New(io.Discard, "", 0))
	if gw.IsAvailable() {
		t.Fatal("empty config must be unavailable")
	}
	if _, err := gw.GetIdentity(context.Background()); !errors.Is(err, ErrSdkUnavailable) {
		t.Fatalf("expected ErrSdkUnavailable, got %v", err)
	}
}

func TestGetIdentity(t *testing.T) {
	srv := newHostServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		okIdentity(w)
	})

	gw := NewHTTPGateway(srv.URL, "token", gatewayRegistry(t), log.New(io.Discard, "", 0))
	identity, err := gw.GetIdentity(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if identity.UserId != "u-1" || identity.DisplayName != "Pat" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestCreateRecordMapsFieldsAndProcess(t *testing.T) {
	var received struct {
		ProcessId string            `json:"process_id"`
		Fields    map[string]string `json:"fields"`
	}
	srv := newHostServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/identity":
			okIdentity(w)
		case "/api/v1/records":
			json.NewDecoder(r.Body).Decode(&received)
			json.NewEncoder(w).Encode(RecordResult{RecordId: "rec-9", ActivityInstanceId: "act-2"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	gw := NewHTTPGateway(srv.URL, "token", gatewayRegistry(t), log.New(io.Discard, "", 0))
	result, err := gw.CreateRecord(context.Background(), "LEAVE", map[string]string{
		"type":   "annual",
		"reason": "vacation",
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.RecordId != "rec-9" {
		t.Fatalf("record id = %s", result.RecordId)
	}
	if received.ProcessId != "leave-request-process" {
		t.Fatalf("process id = %s", received.ProcessId)
	}
	if received.Fields["leave_type"] != "annual" {
		t.Fatalf("mapped field missing: %v", received.Fields)
	}
	if received.Fields["reason"] != "vacation" {
		t.Fatalf("unmapped field must pass through: %v", received.Fields)
	}
}

func TestCreateRecordPermissionCheckedBeforeNetwork(t *testing.T) {
	var hits int32
	srv := newHostServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		okIdentity(w)
	})

	gw := NewHTTPGateway(srv.URL, "token", gatewayRegistry(t), log.New(io.Discard, "", 0))
	_, err := gw.CreateRecord(context.Background(), "HR", map[string]string{"a": "b"})
	if !errors.Is(err, ErrActionNotPermitted) {
		t.Fatalf("expected ErrActionNotPermitted, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatal("permission failure must not touch the network")
	}
}

func TestCreateRecordHostFailure(t *testing.T) {
	srv := newHostServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/identity" {
			okIdentity(w)
			return
		}
		http.Error(w, "workflow schema mismatch", http.StatusUnprocessableEntity)
	})

	gw := NewHTTPGateway(srv.URL, "token", gatewayRegistry(t), log.New(io.Discard, "", 0))
	_, err := gw.CreateRecord(context.Background(), "LEAVE", map[string]string{"type": "annual"})

	var sdkErr *SdkError
	if !errors.As(err, &sdkErr) {
		t.Fatalf("expected SdkError, got %v", err)
	}
	if sdkErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", sdkErr.StatusCode)
	}
}

func TestQueryDataset(t *testing.T) {
	srv := newHostServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/identity":
			okIdentity(w)
		case "/api/v1/datasets/query":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"rows": []map[string]interface{}{{"annual": 12}},
			})
		}
	})

	gw := NewHTTPGateway(srv.URL, "token", gatewayRegistry(t), log.New(io.Discard, "", 0))
	rows, err := gw.QueryDataset(context.Background(), "leave_balances", map[string]string{"user_id": "u-1"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["annual"] != float64(12) {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestStandaloneGateway(t *testing.T) {
	gw := NewStandaloneGateway(gatewayRegistry(t))

	if gw.IsAvailable() {
		t.Fatal("standalone gateway must report unavailable")
	}

	identity, err := gw.GetIdentity(context.Background())
	if err != nil || identity.UserId != "demo-user" {
		t.Fatalf("identity = %+v, err = %v", identity, err)
	}

	// Permission check still precedes the unavailable error.
	if _, err := gw.CreateRecord(context.Background(), "HR", nil); !errors.Is(err, ErrActionNotPermitted) {
		t.Fatalf("expected ErrActionNotPermitted, got %v", err)
	}
	if _, err := gw.CreateRecord(context.Background(), "LEAVE", nil); !errors.Is(err, ErrSdkUnavailable) {
		t.Fatalf("expected ErrSdkUnavailable, got %v", err)
	}
	if _, err := gw.QueryDataset(context.Background(), "ds", nil, 1); !errors.Is(err, ErrSdkUnavailable) {
		t.Fatalf("expected ErrSdkUnavailable, got %v", err)
	}
	if err := gw.OpenRecordPopup(context.Background(), "popup", nil); !errors.Is(err, ErrSdkUnavailable) {
		t.Fatalf("expected ErrSdkUnavailable, got %v", err)
	}
}
