package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dompet/internal/notify"
)

func TestResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Data(map[string]int{"n": 1}).
		Notify(notify.Notification{Level: notify.LevelSuccess, Message: "ok"}).
		Write(rec)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Test") != "1" {
		t.Error("custom header missing")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if string(body["data"]) != `{"n":1}` {
		t.Errorf("data = %s", body["data"])
	}
	if _, ok := body["error"]; ok {
		t.Error("error must be omitted on success")
	}
	if _, ok := body["notification"]; !ok {
		t.Error("notification missing")
	}
}

func TestErrorResponses(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Header("Allow", "GET, POST").Write(rec)

	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != "GET, POST" {
		t.Errorf("status = %d allow = %q", rec.Code, rec.Header().Get("Allow"))
	}
	var body struct {
		Data  any    `json:"data"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error != "method not allowed" || body.Data != nil {
		t.Errorf("body = %s, %v", rec.Body.String(), err)
	}
}
