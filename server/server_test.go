package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/pagerace/config"
	"github.com/wfunc/pagerace/logger"
	"github.com/wfunc/pagerace/network"
	"github.com/wfunc/pagerace/wiki"
)

// fakeProvider serves a fixed page table so tests never hit the network.
type fakeProvider struct {
	pages map[string]string
}

func (f *fakeProvider) SearchFirstMatch(_ context.Context, query string) (*wiki.PageRef, error) {
	for id, title := range f.pages {
		if strings.EqualFold(title, query) {
			return &wiki.PageRef{Title: title, PageID: id}, nil
		}
	}
	return nil, wiki.ErrPageNotFound
}

func (f *fakeProvider) ResolvePage(_ context.Context, pageID string) (*wiki.PageRef, error) {
	title, ok := f.pages[pageID]
	if !ok {
		return nil, wiki.ErrPageNotFound
	}
	return &wiki.PageRef{Title: title, PageID: pageID}, nil
}

func (f *fakeProvider) FetchRenderableContent(_ context.Context, pageID string) (string, error) {
	if _, ok := f.pages[pageID]; !ok {
		return "", wiki.ErrPageNotFound
	}
	return "<html></html>", nil
}

var testServer *GameServer

func TestMain(m *testing.M) {
	logger.Init()
	cfg := &config.Config{}
	cfg.Server.RPCAddress = "127.0.0.1:0"
	cfg.Server.SessionTimeout = time.Minute
	cfg.Game.PINLength = 4

	provider := &fakeProvider{pages: map[string]string{
		"Go_(programming_language)": "Go (programming language)",
		"Gopher":                    "Gopher",
		"Rodent":                    "Rodent",
	}}
	testServer = NewGameServer(cfg, provider)
	m.Run()
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, srv *httptest.Server) *testClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(event string, payload interface{}) {
	c.t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		c.t.Fatalf("Marshal failed: %v", err)
	}
	if err := c.conn.WriteJSON(network.Packet{Event: event, Data: data}); err != nil {
		c.t.Fatalf("Write failed: %v", err)
	}
}

// waitFor reads packets until the wanted event arrives, skipping unrelated
// broadcasts along the way.
func (c *testClient) waitFor(event string) map[string]interface{} {
	return c.waitForMatch(event, func(map[string]interface{}) bool { return true })
}

// waitForMatch additionally skips matching events whose payload fails the
// predicate, e.g. stale room_update broadcasts queued by earlier actions.
func (c *testClient) waitForMatch(event string, match func(map[string]interface{}) bool) map[string]interface{} {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var packet network.Packet
		if err := c.conn.ReadJSON(&packet); err != nil {
			c.t.Fatalf("Waiting for %q: %v", event, err)
		}
		if packet.Event != event {
			continue
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(packet.Data, &payload); err != nil {
			c.t.Fatalf("Unmarshal %q payload: %v", event, err)
		}
		if !match(payload) {
			continue
		}
		return payload
	}
}

func TestEndToEndGame(t *testing.T) {
	srv := httptest.NewServer(testServer.Handler())
	defer srv.Close()

	owner := dial(t, srv)
	owner.send(network.EventTryCreateRoom, map[string]string{"room": "trivia", "code": ""})

	joined := owner.waitFor(network.EventJoinRoomResponse)
	if joined["status"] != network.StatusSuccess {
		t.Fatalf("Create room failed: %v", joined)
	}
	if joined["name"] != "trivia" {
		t.Fatalf("Expected room trivia, got %v", joined["name"])
	}
	code, _ := joined["code"].(string)
	if len(code) != 4 {
		t.Fatalf("Expected a generated 4-digit code, got %q", code)
	}

	guest := dial(t, srv)
	guest.send(network.EventTryJoinRoom, map[string]string{"room": "trivia", "code": code})
	joined = guest.waitFor(network.EventJoinRoomResponse)
	if joined["status"] != network.StatusSuccess {
		t.Fatalf("Join room failed: %v", joined)
	}

	// Wrong code is rejected.
	intruder := dial(t, srv)
	intruder.send(network.EventTryJoinRoom, map[string]string{"room": "trivia", "code": "wrong"})
	rejected := intruder.waitFor(network.EventJoinRoomResponse)
	if rejected["status"] != network.StatusFailure {
		t.Fatalf("Expected failure for wrong code, got %v", rejected)
	}

	// The owner configures both pages by search.
	owner.send(network.EventSearchPages, map[string]string{"element": "start_article", "query": "Go (programming language)"})
	owner.waitForMatch(network.EventRoomUpdate, func(p map[string]interface{}) bool {
		start, _ := p["start_article"].(map[string]interface{})
		return start != nil && start["page_id"] == "Go_(programming_language)"
	})

	owner.send(network.EventSearchPages, map[string]string{"element": "end_article", "query": "Gopher"})
	owner.waitForMatch(network.EventRoomUpdate, func(p map[string]interface{}) bool {
		end, _ := p["end_article"].(map[string]interface{})
		return end != nil && end["page_id"] == "Gopher"
	})

	owner.send(network.EventTryStartGame, nil)

	for _, c := range []*testClient{owner, guest} {
		started := c.waitFor(network.EventStart)
		if started["start_title"] != "Go_(programming_language)" {
			t.Fatalf("Expected start page broadcast, got %v", started)
		}
		if started["scene"] != "wikiWindow" {
			t.Fatalf("Expected wikiWindow scene, got %v", started)
		}
	}

	// Guest navigates to an intermediate page, then to the end page and wins.
	guest.send(network.EventGameModeEvent, map[string]string{"event": "navpage", "page_id": "Rodent"})
	nav := guest.waitFor(network.EventNavigatePage)
	if nav["page_id"] != "Rodent" {
		t.Fatalf("Expected navigation to Rodent, got %v", nav)
	}

	guest.send(network.EventGameModeEvent, map[string]string{"event": "navpage", "page_id": "Gopher"})
	for _, c := range []*testClient{owner, guest} {
		victory := c.waitFor(network.EventVictoryRace)
		if victory["scene"] != "victory" {
			t.Fatalf("Expected victory scene, got %v", victory)
		}
		path, _ := victory["page_path"].([]interface{})
		if len(path) != 2 {
			t.Fatalf("Expected winner path [start, Rodent], got %v", victory["page_path"])
		}
	}
}

func TestSearchPagesRequiresOwner(t *testing.T) {
	srv := httptest.NewServer(testServer.Handler())
	defer srv.Close()

	owner := dial(t, srv)
	owner.send(network.EventTryCreateRoom, map[string]string{"room": "owners only", "code": "1111"})
	joined := owner.waitFor(network.EventJoinRoomResponse)
	if joined["status"] != network.StatusSuccess {
		t.Fatalf("Create room failed: %v", joined)
	}

	guest := dial(t, srv)
	guest.send(network.EventTryJoinRoom, map[string]string{"room": "owners only", "code": "1111"})
	guest.waitFor(network.EventJoinRoomResponse)

	guest.send(network.EventSearchPages, map[string]string{"element": "start_article", "query": "Gopher"})
	resp := guest.waitFor(network.EventSearchPages)
	if resp["status"] != network.StatusFailure {
		t.Fatalf("Expected owner check failure, got %v", resp)
	}
	if resp["error"] != "Not the owner of the room" {
		t.Fatalf("Unexpected error message: %v", resp["error"])
	}
}

func TestPageContentEndpoint(t *testing.T) {
	srv := httptest.NewServer(testServer.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/page/Gopher")
	if err != nil {
		t.Fatalf("GET /page/Gopher failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	resp, err = srv.Client().Get(srv.URL + "/page/Missing")
	if err != nil {
		t.Fatalf("GET /page/Missing failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("Expected 404, got %d", resp.StatusCode)
	}
}
