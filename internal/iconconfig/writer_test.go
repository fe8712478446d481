package iconconfig

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingClient struct {
	mu    sync.Mutex
	calls []string
	gate  chan struct{}
	err   error
}

func (c *recordingClient) Save(ctx context.Context, cfg IconConfig) (SaveResult, error) {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "save:"+cfg.ID+":"+cfg.Settings.Position.Left.CSS())
	return SaveResult{}, c.err
}

func (c *recordingClient) Delete(ctx context.Context, id string, deleteFile bool) (DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "delete:"+id)
	return DeleteResult{}, c.err
}

func iconAt(id string, left float64) IconConfig {
	cfg := sampleIcon(id)
	cfg.Settings.Position.Left = Number(left)
	return cfg
}

func TestWriterKeepsOrderPerID(t *testing.T) {
	client := &recordingClient{gate: make(chan struct{})}
	w := NewWriter(client)
	defer w.Close()

	first := w.Save(iconAt("a", 1))
	second := w.Save(iconAt("a", 2))
	third := w.Delete("a", false)

	if got := w.Pending("a"); got != 3 {
		t.Errorf("Pending = %d, want 3", got)
	}

	close(client.gate)
	for i, ch := range []<-chan error{first, second, third} {
		select {
		case err := <-ch:
			if err != nil {
				t.Errorf("op %d: %v", i, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("op %d did not complete", i)
		}
	}

	want := []string{"save:a:1", "save:a:2", "delete:a"}
	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", client.calls, want)
	}
	for i := range want {
		if client.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, client.calls[i], want[i])
		}
	}
}

func TestWriterReportsErrors(t *testing.T) {
	client := &recordingClient{err: &StatusError{Code: 500, Message: "disk full"}}
	w := NewWriter(client)
	defer w.Close()

	err := <-w.Save(iconAt("a", 1))
	if !IsTransient(err) {
		t.Errorf("err = %v, want a transient StatusError", err)
	}
}

func TestWriterRejectsAfterClose(t *testing.T) {
	w := NewWriter(&recordingClient{})
	w.Close()

	if err := <-w.Save(iconAt("a", 1)); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("err = %v, want ErrWriterClosed", err)
	}
}

func TestWriterCloseDrainsQueue(t *testing.T) {
	client := &recordingClient{}
	w := NewWriter(client)

	done := w.Save(iconAt("a", 1))
	w.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("err = %v", err)
		}
	default:
		t.Fatal("queued save not finished after Close")
	}
	if w.Pending("a") != 0 {
		t.Errorf("Pending = %d, want 0", w.Pending("a"))
	}
}
