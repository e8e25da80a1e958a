package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/botcast-dev/botcast/internal/livedata"
)

func TestGenerateOnceReturnsDraft(t *testing.T) {
	repo := newFakeRepo()
	seedBot(repo, "bot-1", 60, true, true)
	content := &fakeContent{text: "\"a short take\""}
	pub := &fakePublisher{}
	r := newTestRunner(repo, content, pub, livedata.Sources{})
	defer r.Scheduler().Stop()

	got, err := r.GenerateOnce(context.Background(), "bot-1")
	if err != nil {
		t.Fatalf("GenerateOnce() error = %v", err)
	}
	if got != "a short take" {
		t.Errorf("GenerateOnce() = %q, want unquoted draft", got)
	}
	if len(pub.all()) != 0 {
		t.Error("on-demand generation published")
	}
	if r.Scheduler().IsActive("bot-1") {
		t.Error("on-demand generation touched the schedule")
	}
}

func TestGenerateOnceRetriesBeforeTruncating(t *testing.T) {
	repo := newFakeRepo()
	seedBot(repo, "bot-1", 60, true, true)
	content := &fakeContent{text: strings.Repeat("a", 300)}
	content.onGenerate = func() {
		// Second pass returns a fitting draft.
		content.mu.Lock()
		if len(content.calls) == 1 {
			content.text = "trimmed take"
		}
		content.mu.Unlock()
	}
	r := newTestRunner(repo, content, &fakePublisher{}, livedata.Sources{})
	defer r.Scheduler().Stop()

	got, err := r.GenerateOnce(context.Background(), "bot-1")
	if err != nil {
		t.Fatalf("GenerateOnce() error = %v", err)
	}
	if got != "trimmed take" {
		t.Errorf("GenerateOnce() = %q, want the regenerated draft", got)
	}
	if content.callCount() != 2 {
		t.Fatalf("generate calls = %d, want 2", content.callCount())
	}
	if !content.calls[1].Shorter {
		t.Error("regeneration pass not marked as shorter")
	}
}

func TestGenerateOnceTruncatesWhenRetryStillLong(t *testing.T) {
	repo := newFakeRepo()
	seedBot(repo, "bot-1", 60, true, true)
	content := &fakeContent{text: strings.Repeat("b", 300)}
	r := newTestRunner(repo, content, &fakePublisher{}, livedata.Sources{})
	defer r.Scheduler().Stop()

	got, err := r.GenerateOnce(context.Background(), "bot-1")
	if err != nil {
		t.Fatalf("GenerateOnce() error = %v", err)
	}
	if content.callCount() != 2 {
		t.Fatalf("generate calls = %d, want 2", content.callCount())
	}
	if len([]rune(got)) != 280 || !strings.HasSuffix(got, "...") {
		t.Errorf("GenerateOnce() length = %d, want 280 with ellipsis", len([]rune(got)))
	}
}

func TestGenerateOnceUnknownBot(t *testing.T) {
	r := newTestRunner(newFakeRepo(), &fakeContent{text: "x"}, &fakePublisher{}, livedata.Sources{})
	defer r.Scheduler().Stop()

	if _, err := r.GenerateOnce(context.Background(), "ghost"); !errors.Is(err, ErrBotNotFound) {
		t.Errorf("GenerateOnce(ghost) error = %v, want ErrBotNotFound", err)
	}
}
