package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}
	return buf.String()
}

func TestPrintResponseIndentsJSON(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{"reference":"abc","status":"submitted"}`)),
	}

	out := captureOutput(t, func() {
		printResponse(resp)
	})

	expected := "{\n  \"reference\": \"abc\",\n  \"status\": \"submitted\"\n}\n"
	if out != expected {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPrintResponsePassesThroughNonJSON(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("plain text")),
	}

	out := captureOutput(t, func() {
		printResponse(resp)
	})

	if strings.TrimSpace(out) != "plain text" {
		t.Fatalf("expected body passed through, got %q", out)
	}
}

func TestGetPrintsServerResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/escrows/abc" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	origURL := baseURL
	baseURL = server.URL
	defer func() { baseURL = origURL }()

	out := captureOutput(t, func() {
		get("/api/v1/escrows/abc")
	})

	if !strings.Contains(out, `"ok": true`) {
		t.Fatalf("expected indented response, got %q", out)
	}
}

func TestPostSendsJSONBody(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"created":true}`))
	}))
	defer server.Close()

	origURL := baseURL
	baseURL = server.URL
	defer func() { baseURL = origURL }()

	out := captureOutput(t, func() {
		post("/api/v1/escrows", map[string]any{"owner": "alice", "amount": "1000"})
	})

	if received["owner"] != "alice" || received["amount"] != "1000" {
		t.Fatalf("unexpected payload: %v", received)
	}
	if !strings.Contains(out, `"created": true`) {
		t.Fatalf("expected indented response, got %q", out)
	}
}
