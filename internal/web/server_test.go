package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCapturesRedirect(t *testing.T) {
	server, err := Listen("127.0.0.1:0", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	go func() {
		// Give Wait a moment to start serving
		time.Sleep(10 * time.Millisecond)
		response, err := http.Get(server.URL() + "/?code=code-1&state=state-1")
		if err != nil {
			t.Error(err)
			return
		}
		response.Body.Close()
		if response.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", response.StatusCode)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := server.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Code != "code-1" || got.State != "state-1" {
		t.Errorf("got %+v", got)
	}
}

func TestRejectsRedirectWithoutCode(t *testing.T) {
	server, err := Listen("127.0.0.1:0", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	go func() {
		time.Sleep(10 * time.Millisecond)

		// A redirect without a code parameter is rejected and does not
		// complete the wait
		response, err := http.Get(server.URL() + "/?state=state-1")
		if err != nil {
			t.Error(err)
			return
		}
		response.Body.Close()
		if response.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", response.StatusCode)
		}

		response, err = http.Get(server.URL() + "/?code=code-1&state=state-1")
		if err != nil {
			t.Error(err)
			return
		}
		response.Body.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := server.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Code != "code-1" {
		t.Errorf("code = %q, want code-1", got.Code)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	server, err := Listen("127.0.0.1:0", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := server.Wait(ctx); err == nil {
		t.Error("expected error from canceled context")
	}
}
