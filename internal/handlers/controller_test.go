package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"two_point_controller/internal/models"
	"two_point_controller/internal/policy"
	"two_point_controller/internal/service"
)

func doAuthed(t *testing.T, h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	h.ServeHTTP(w, req)
	return w
}

func decodeValue(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal %s: %v", w.Body.String(), err)
	}
	return out
}

func TestControllerHandlers_RequireAuth(t *testing.T) {
	s := &service.Service{Authorization: &mockAuth{parseErr: errors.New("bad")}, Controller: &mockController{}}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/controller/attributes", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}
}

func TestControllerHandlers_Reads(t *testing.T) {
	ctrl := &mockController{
		attrs:   models.Attributes{Controller: "boiler", SensorValueCurrent: 18, SensorValueTarget: 20, TargetSet: true},
		sensor:  18,
		actor:   -10,
		diff:    2,
		target:  20,
		enabled: true,
	}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Controller: ctrl})

	w := doAuthed(t, r, http.MethodGet, "/api/v1/controller/attributes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("attributes status=%d body=%s", w.Code, w.Body.String())
	}
	var a models.Attributes
	if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
		t.Fatalf("unmarshal attributes: %v", err)
	}
	if a.Controller != "boiler" || a.SensorValueCurrent != 18 || !a.TargetSet {
		t.Fatalf("unexpected attributes: %+v", a)
	}

	cases := []struct {
		path string
		want any
	}{
		{"/api/v1/controller/sensor-value", 18.0},
		{"/api/v1/controller/actor-value", -10.0},
		{"/api/v1/controller/difference", 2.0},
		{"/api/v1/controller/target", 20.0},
		{"/api/v1/controller/enabled", true},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := doAuthed(t, r, http.MethodGet, tc.path, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			if got := decodeValue(t, w)["value"]; got != tc.want {
				t.Fatalf("value=%v, want %v", got, tc.want)
			}
		})
	}
}

func TestControllerHandlers_TargetUnsetFlag(t *testing.T) {
	ctrl := &mockController{target: policy.TargetNoValue}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Controller: ctrl})

	out := decodeValue(t, doAuthed(t, r, http.MethodGet, "/api/v1/controller/target", nil))
	if out["set"] != false || out["value"] != policy.TargetNoValue {
		t.Fatalf("unexpected target response: %v", out)
	}
}

func TestControllerHandlers_SensorFailure(t *testing.T) {
	ctrl := &mockController{
		attrsErr:  errors.New("timeout"),
		sensorErr: errors.New("timeout"),
		diffErr:   errors.New("timeout"),
	}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Controller: ctrl})

	for _, path := range []string{
		"/api/v1/controller/attributes",
		"/api/v1/controller/sensor-value",
		"/api/v1/controller/difference",
	} {
		w := doAuthed(t, r, http.MethodGet, path, nil)
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", path, w.Code)
		}
		if decodeValue(t, w)["error"] != errSensorUnavailable {
			t.Fatalf("%s: unexpected body %s", path, w.Body.String())
		}
	}
}

func TestControllerHandlers_Writes(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		readOnly bool
		setErr   error
		wantCode int
	}{
		{name: "set target", path: "/api/v1/controller/target", body: `{"value":21.5}`, wantCode: http.StatusOK},
		{name: "set target zero", path: "/api/v1/controller/target", body: `{"value":0}`, wantCode: http.StatusOK},
		{name: "target missing value", path: "/api/v1/controller/target", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "target not a number", path: "/api/v1/controller/target", body: `{"value":"hot"}`, wantCode: http.StatusBadRequest},
		{name: "target read-only", path: "/api/v1/controller/target", body: `{"value":1}`, readOnly: true, wantCode: http.StatusForbidden},
		{name: "target refused by service", path: "/api/v1/controller/target", body: `{"value":1}`, setErr: service.ErrReadOnlyAttribute, wantCode: http.StatusForbidden},
		{name: "target invalid", path: "/api/v1/controller/target", body: `{"value":1}`, setErr: service.ErrInvalidTarget, wantCode: http.StatusBadRequest},
		{name: "target unexpected error", path: "/api/v1/controller/target", body: `{"value":1}`, setErr: errors.New("boom"), wantCode: http.StatusInternalServerError},
		{name: "enable", path: "/api/v1/controller/enabled", body: `{"value":true}`, wantCode: http.StatusOK},
		{name: "disable", path: "/api/v1/controller/enabled", body: `{"value":false}`, wantCode: http.StatusOK},
		{name: "enabled missing value", path: "/api/v1/controller/enabled", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "enabled read-only", path: "/api/v1/controller/enabled", body: `{"value":true}`, readOnly: true, wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &mockController{writable: !tt.readOnly, setErr: tt.setErr}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Controller: ctrl})

			w := doAuthed(t, r, http.MethodPut, tt.path, bytes.NewBufferString(tt.body))
			if w.Code != tt.wantCode {
				t.Fatalf("status=%d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}

func TestControllerHandlers_WritesReachService(t *testing.T) {
	ctrl := &mockController{writable: true}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Controller: ctrl})

	w := doAuthed(t, r, http.MethodPut, "/api/v1/controller/target", bytes.NewBufferString(`{"value":21.5}`))
	out := decodeValue(t, w)
	if out["status"] != statusTargetSet || out["value"] != 21.5 {
		t.Fatalf("unexpected response: %v", out)
	}
	if len(ctrl.setTargetCalls) != 1 || ctrl.setTargetCalls[0] != 21.5 {
		t.Fatalf("SetTarget calls: %v", ctrl.setTargetCalls)
	}

	w = doAuthed(t, r, http.MethodPut, "/api/v1/controller/enabled", bytes.NewBufferString(`{"value":false}`))
	out = decodeValue(t, w)
	if out["status"] != statusEnabledSet || out["value"] != false {
		t.Fatalf("unexpected response: %v", out)
	}
	if len(ctrl.setEnabledCalls) != 1 || ctrl.setEnabledCalls[0] {
		t.Fatalf("SetEnabled calls: %v", ctrl.setEnabledCalls)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || decodeValue(t, w)["status"] != statusOK {
		t.Fatalf("health status=%d body=%s", w.Code, w.Body.String())
	}
}
