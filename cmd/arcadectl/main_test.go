package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(context.Background(), append([]string{"arcadectl"}, args...))
	return out.String(), err
}

func TestStartAndPlay(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		requests = append(requests, r.Method+" "+r.URL.Path)

		switch r.URL.Path {
		case "/api/games":
			if body["gameType"] != "memorymatch" {
				t.Errorf("Expected memorymatch, got %v", body["gameType"])
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]interface{}{"gameId": 1, "gameType": "memorymatch"})
		case "/api/games/1/actions":
			if body["action"] != "flip_3" {
				t.Errorf("Expected flip_3, got %v", body["action"])
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"gameId": 1, "status": "Playing"})
		}
	}))
	defer server.Close()

	out, err := run(t, "--url", server.URL, "start", "--type", "memorymatch")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !strings.Contains(out, `"gameType": "memorymatch"`) {
		t.Errorf("Unexpected output: %s", out)
	}

	if _, err := run(t, "--url", server.URL, "play", "--game", "1", "flip_3"); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	if len(requests) != 2 || requests[1] != "POST /api/games/1/actions" {
		t.Errorf("Unexpected requests: %v", requests)
	}
}

func TestPlay_RequiresAction(t *testing.T) {
	if _, err := run(t, "--url", "http://localhost:0", "play", "--game", "1"); err == nil {
		t.Error("Expected error without an action")
	}
}

func TestEnd(t *testing.T) {
	ended := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "DELETE" || r.URL.Query().Get("playerId") != "2" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL)
		}
		json.NewEncoder(w).Encode(map[string]bool{"ended": ended})
	}))
	defer server.Close()

	out, err := run(t, "--url", server.URL, "end", "--game", "4", "--player", "2")
	if err != nil || !strings.Contains(out, "game 4 ended") {
		t.Errorf("Unexpected result %q, %v", out, err)
	}

	ended = false
	if _, err := run(t, "--url", server.URL, "end", "--game", "4", "--player", "2"); err == nil {
		t.Error("Expected error when the game is not running")
	}
}

func TestStatus(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		requests = append(requests, r.Method+" "+r.URL.Path+" "+body["status"])
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 1, "gameId": 4, "playerId": 2, "status": "Injured"})
	}))
	defer server.Close()

	if _, err := run(t, "--url", server.URL, "status", "--game", "4", "--player", "2", "--set", "Injured"); err != nil {
		t.Fatalf("status --set failed: %v", err)
	}
	out, err := run(t, "--url", server.URL, "status", "--game", "4", "--player", "2")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, `"status": "Injured"`) {
		t.Errorf("Unexpected output: %s", out)
	}

	want := []string{"PUT /api/games/4/players/2/status Injured", "GET /api/games/4/players/2/status "}
	if len(requests) != 2 || requests[0] != want[0] || requests[1] != want[1] {
		t.Errorf("Unexpected requests: %v", requests)
	}
}

func TestAPIErrorIsSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "game not found: 9"})
	}))
	defer server.Close()

	_, err := run(t, "--url", server.URL, "info", "--catalog", "9")
	if err == nil || err.Error() != "game not found: 9" {
		t.Errorf("Expected server error message, got %v", err)
	}
}

func TestValidateCatalog(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	write("good.json", `{"id": 10, "title": "Pinball", "price": 2.5}`)
	out, err := run(t, "validate-catalog", dir)
	if err != nil {
		t.Fatalf("Expected valid catalog, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 file(s), 0 invalid") {
		t.Errorf("Unexpected summary: %s", out)
	}

	write("bad.json", `{"id": 0, "title": ""}`)
	out, err = run(t, "validate-catalog", dir)
	if err == nil {
		t.Error("Expected error for invalid catalog")
	}
	if !strings.Contains(out, "bad.json") || !strings.Contains(out, "title is required") {
		t.Errorf("Expected problems to be listed, got: %s", out)
	}
}
