package panel

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/mentionwatch/chatmsg"
	"github.com/hazyhaar/mentionwatch/internal/dbopen"
	"github.com/hazyhaar/mentionwatch/internal/history"
	_ "modernc.org/sqlite"
)

func newTestPanel(t *testing.T) (*Panel, *history.Store) {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(history.Schema))
	store := history.NewStore(db)
	return New(store, nil), store
}

func seed(t *testing.T, store *history.Store, msgs ...*chatmsg.Message) {
	t.Helper()
	for _, m := range msgs {
		if err := store.Append(context.Background(), m); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
}

func TestPanel_ListEmpty(t *testing.T) {
	p, _ := newTestPanel(t)
	srv := httptest.NewServer(p.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/mentions")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got []*chatmsg.Message
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}

func TestPanel_ListReturnsHistory(t *testing.T) {
	p, store := newTestPanel(t)
	seed(t, store,
		&chatmsg.Message{ID: "m1", Author: "Alice", PlainText: "are you there", ReceivedAt: time.Now()},
		&chatmsg.Message{ID: "m2", Author: "Carol", PlainText: "ping", ReceivedAt: time.Now()},
	)

	srv := httptest.NewServer(p.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/mentions")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var got []*chatmsg.Message
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "m1" || got[1].ID != "m2" {
		t.Errorf("order = %s,%s, want m1,m2", got[0].ID, got[1].ID)
	}
	if got[0].Author != "Alice" {
		t.Errorf("author = %q, want Alice", got[0].Author)
	}
}

func TestPanel_ExportMarkdown(t *testing.T) {
	p, store := newTestPanel(t)
	seed(t, store, &chatmsg.Message{
		ID:           "m1",
		Author:       "Alice",
		PlainText:    "hello Bob",
		RenderedHTML: `<span><strong>hello</strong> Bob</span>`,
		ReceivedAt:   time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	})

	srv := httptest.NewServer(p.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/mentions/export")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Content-Type = %q, want text/markdown", ct)
	}

	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := buf.String()
	if !strings.Contains(body, "**Alice**") {
		t.Errorf("body missing author: %q", body)
	}
	if !strings.Contains(body, "**hello**") {
		t.Errorf("body not converted to markdown: %q", body)
	}
}

func TestPanel_Clear(t *testing.T) {
	p, store := newTestPanel(t)
	seed(t, store, &chatmsg.Message{ID: "m1", Author: "Alice", ReceivedAt: time.Now()})

	srv := httptest.NewServer(p.Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/mentions", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("count after clear = %d, want 0", n)
	}
}

func TestPanel_IndexRendersMentions(t *testing.T) {
	p, store := newTestPanel(t)
	seed(t, store, &chatmsg.Message{
		ID:           "m1",
		Author:       "Alice",
		PlainText:    "are you there",
		RenderedHTML: `<span class="text-fragment">are you there</span>`,
		ReceivedAt:   time.Now(),
	})

	srv := httptest.NewServer(p.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := buf.String()
	if !strings.Contains(body, "Alice") {
		t.Errorf("index missing author: %q", body)
	}
	if !strings.Contains(body, `<span class="text-fragment">are you there</span>`) {
		t.Errorf("index did not render stored markup: %q", body)
	}
}
