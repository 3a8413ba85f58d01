package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/declabot/internal/model"
)

type fakeDrafts struct {
	draft  model.UserDraft
	resets int
}

func (f *fakeDrafts) GetOrCreate(userID int64) (model.UserDraft, error) {
	return *f.draft.Clone(), nil
}

func (f *fakeDrafts) Reset(userID int64) error {
	f.resets++
	f.draft.Reset()
	return nil
}

type fakeFetcher struct {
	blobs map[string][]byte
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, fileID string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.blobs[fileID]
	if !ok {
		return nil, fmt.Errorf("no blob %s", fileID)
	}
	return data, nil
}

type fakeRenderer struct {
	payload    Payload
	recipients []string
	calls      int
	err        error
}

func (f *fakeRenderer) RenderAndSend(_ context.Context, p Payload, recipients []string) error {
	f.calls++
	f.payload = p
	f.recipients = recipients
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func finalizableDraft() model.UserDraft {
	d := model.NewDraft()
	d.Name = "Jane"
	d.Email = "jane@example.com"
	d.IBAN = "NL91ABNA0417164300"
	d.Rows = append(d.Rows, model.LineItem{Message: "Lunch", Amount: decimal.RequireFromString("9.50")})
	d.Attachments = append(d.Attachments, model.Attachment{FileID: "f1", IsPDF: true})
	d.Approved = true
	return *d
}

func TestFinalizeSendsAndResets(t *testing.T) {
	drafts := &fakeDrafts{draft: finalizableDraft()}
	fetcher := &fakeFetcher{blobs: map[string][]byte{"f1": []byte("%PDF-fake")}}
	renderer := &fakeRenderer{}
	disp := NewDispatcher(drafts, fetcher, renderer, []string{"board@example.com"}, testLogger())

	if err := disp.Finalize(context.Background(), 1); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if renderer.calls != 1 {
		t.Fatalf("renderer called %d times, want 1", renderer.calls)
	}
	p := renderer.payload
	if p.Name != "Jane" || p.IBAN != "NL91ABNA0417164300" {
		t.Errorf("payload profile fields wrong: %+v", p)
	}
	if len(p.Attachments) != 1 || !p.Attachments[0].IsPDF || string(p.Attachments[0].Data) != "%PDF-fake" {
		t.Errorf("payload attachments wrong: %+v", p.Attachments)
	}
	if drafts.resets != 1 {
		t.Errorf("draft reset %d times, want 1", drafts.resets)
	}
}

func TestFinalizeRecipientPolicy(t *testing.T) {
	board := []string{"board@example.com", "treasurer@example.com"}

	t.Run("board merged with user email", func(t *testing.T) {
		drafts := &fakeDrafts{draft: finalizableDraft()}
		renderer := &fakeRenderer{}
		disp := NewDispatcher(drafts, &fakeFetcher{blobs: map[string][]byte{"f1": nil}}, renderer, board, testLogger())

		if err := disp.Finalize(context.Background(), 1); err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		want := []string{"jane@example.com", "board@example.com", "treasurer@example.com"}
		if len(renderer.recipients) != len(want) {
			t.Fatalf("recipients = %v, want %v", renderer.recipients, want)
		}
		for i := range want {
			if renderer.recipients[i] != want[i] {
				t.Errorf("recipients[%d] = %q, want %q", i, renderer.recipients[i], want[i])
			}
		}
	})

	t.Run("user only when board disabled", func(t *testing.T) {
		draft := finalizableDraft()
		draft.SendToBoard = false
		drafts := &fakeDrafts{draft: draft}
		renderer := &fakeRenderer{}
		disp := NewDispatcher(drafts, &fakeFetcher{blobs: map[string][]byte{"f1": nil}}, renderer, board, testLogger())

		if err := disp.Finalize(context.Background(), 1); err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		if len(renderer.recipients) != 1 || renderer.recipients[0] != "jane@example.com" {
			t.Errorf("recipients = %v, want only the user's address", renderer.recipients)
		}
	})
}

func TestFinalizeRejectsInvalidDraftIdempotently(t *testing.T) {
	drafts := &fakeDrafts{draft: *model.NewDraft()}
	renderer := &fakeRenderer{}
	disp := NewDispatcher(drafts, &fakeFetcher{}, renderer, nil, testLogger())

	for i := 0; i < 2; i++ {
		if err := disp.Finalize(context.Background(), 1); !errors.Is(err, ErrNotFinalizable) {
			t.Fatalf("attempt %d: error = %v, want ErrNotFinalizable", i+1, err)
		}
	}
	if renderer.calls != 0 {
		t.Error("invalid draft must never reach the renderer")
	}
	if drafts.resets != 0 {
		t.Error("rejected finalize must not mutate state")
	}
}

func TestFinalizeFetchFailureAbortsWithoutReset(t *testing.T) {
	drafts := &fakeDrafts{draft: finalizableDraft()}
	renderer := &fakeRenderer{}
	disp := NewDispatcher(drafts, &fakeFetcher{err: errors.New("disk gone")}, renderer, nil, testLogger())

	if err := disp.Finalize(context.Background(), 1); err == nil {
		t.Fatal("expected fetch failure to abort finalize")
	}
	if renderer.calls != 0 {
		t.Error("no partial send: renderer must not be called after a fetch failure")
	}
	if drafts.resets != 0 {
		t.Error("draft must stay intact for retry")
	}
}

func TestFinalizeSendFailureKeepsDraft(t *testing.T) {
	drafts := &fakeDrafts{draft: finalizableDraft()}
	renderer := &fakeRenderer{err: errors.New("smtp down")}
	disp := NewDispatcher(drafts, &fakeFetcher{blobs: map[string][]byte{"f1": nil}}, renderer, nil, testLogger())

	if err := disp.Finalize(context.Background(), 1); err == nil {
		t.Fatal("expected send failure to surface")
	}
	if drafts.resets != 0 {
		t.Error("draft must not be reset when the send fails")
	}
}
