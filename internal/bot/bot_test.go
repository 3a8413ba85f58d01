package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/declabot/internal/report"
	"github.com/declabot/internal/store"
)

type recordingNotifier struct {
	replies []string
}

func (n *recordingNotifier) Send(userID int64, text string) {
	n.replies = append(n.replies, text)
}

func (n *recordingNotifier) last(t *testing.T) string {
	t.Helper()
	if len(n.replies) == 0 {
		t.Fatal("expected a reply, got none")
	}
	return n.replies[len(n.replies)-1]
}

type fakeFinalizer struct {
	err   error
	calls int
}

func (f *fakeFinalizer) Finalize(ctx context.Context, userID int64) error {
	f.calls++
	return f.err
}

func newTestBot(t *testing.T) (*Bot, *store.ProfileStore, *recordingNotifier, *fakeFinalizer) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "drafts.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	n := &recordingNotifier{}
	f := &fakeFinalizer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(s, f, n, logger), s, n, f
}

func handle(t *testing.T, b *Bot, ev Event) {
	t.Helper()
	if err := b.Handle(context.Background(), ev); err != nil {
		t.Fatalf("Handle(%v) failed: %v", ev.Command, err)
	}
}

func TestSetNameRequiresValue(t *testing.T) {
	b, s, n, _ := newTestBot(t)
	handle(t, b, Event{UserID: 1, Command: CmdSetName})

	if !strings.Contains(n.last(t), "expects a value") {
		t.Errorf("unexpected reply: %q", n.last(t))
	}
	d, _ := s.GetOrCreate(1)
	if d.Name != "" {
		t.Error("empty name must not be stored")
	}
}

func TestSetEmailRejectsInvalidWithoutMutation(t *testing.T) {
	b, s, n, _ := newTestBot(t)
	handle(t, b, Event{UserID: 1, Command: CmdSetEmail, Text: "not-an-email"})

	if !strings.Contains(n.last(t), "Invalid email") {
		t.Errorf("unexpected reply: %q", n.last(t))
	}
	d, _ := s.GetOrCreate(1)
	if d.Email != "" {
		t.Error("invalid email must not be stored")
	}

	handle(t, b, Event{UserID: 1, Command: CmdSetEmail, Text: "jane@example.com"})
	d, _ = s.GetOrCreate(1)
	if d.Email != "jane@example.com" {
		t.Error("valid email should be stored")
	}
}

func TestSetIbanRejectsInvalidWithoutMutation(t *testing.T) {
	b, s, n, _ := newTestBot(t)
	handle(t, b, Event{UserID: 1, Command: CmdSetIban, Text: "NL92ABNA0417164300"})

	if !strings.Contains(n.last(t), "Invalid IBAN") {
		t.Errorf("unexpected reply: %q", n.last(t))
	}
	d, _ := s.GetOrCreate(1)
	if d.IBAN != "" {
		t.Error("invalid IBAN must not be stored")
	}
}

func TestSetBoard(t *testing.T) {
	b, s, n, _ := newTestBot(t)

	handle(t, b, Event{UserID: 1, Command: CmdSetBoard, Text: "FALSE"})
	d, _ := s.GetOrCreate(1)
	if d.SendToBoard {
		t.Error("set_board false (case-insensitive) should be accepted")
	}

	handle(t, b, Event{UserID: 1, Command: CmdSetBoard, Text: "maybe"})
	if !strings.Contains(n.last(t), "true or false") {
		t.Errorf("unexpected reply: %q", n.last(t))
	}
	d, _ = s.GetOrCreate(1)
	if d.SendToBoard {
		t.Error("rejected value must not change the flag")
	}
}

func TestAddLineRequiresExactlyOneSeparator(t *testing.T) {
	b, s, n, _ := newTestBot(t)

	for _, text := range []string{"no separator", "a;b;c", "Groceries;abc"} {
		handle(t, b, Event{UserID: 1, Command: CmdAddLine, Text: text})
		if !strings.Contains(n.last(t), "<Description>; <Amount>") {
			t.Errorf("Handle(%q): unexpected reply %q", text, n.last(t))
		}
	}
	d, _ := s.GetOrCreate(1)
	if len(d.Rows) != 0 {
		t.Error("malformed lines must not be appended")
	}

	handle(t, b, Event{UserID: 1, Command: CmdAddLine, Text: "Lunch; 9,5"})
	if !strings.Contains(n.last(t), "Total is now €9,50") {
		t.Errorf("unexpected reply: %q", n.last(t))
	}
}

func TestAddLineRunningTotalUsesDecimalComma(t *testing.T) {
	b, _, n, _ := newTestBot(t)
	handle(t, b, Event{UserID: 1, Command: CmdAddLine, Text: "Coffee;2.50"})
	handle(t, b, Event{UserID: 1, Command: CmdAddLine, Text: "Lunch;9.50"})

	if !strings.Contains(n.last(t), "€12,00") {
		t.Errorf("expected running total €12,00 in reply, got %q", n.last(t))
	}
}

func TestAddAttachment(t *testing.T) {
	cases := []struct {
		name      string
		ref       FileRef
		wantReply string
		wantCount int
	}{
		{"image accepted", FileRef{ID: "a", ContentType: "image/jpeg", Size: 1 << 20}, "✅ Photo added", 1},
		{"pdf accepted", FileRef{ID: "b", ContentType: "application/pdf", Size: 2 << 20}, "✅ PDF added", 1},
		{"oversized pdf", FileRef{ID: "c", ContentType: "application/pdf", Size: MaxPDFSize + 1}, "larger than 10 MB", 0},
		{"wrong type", FileRef{ID: "d", ContentType: "application/zip", Size: 100}, "Only compressed images and PDFs", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, s, n, _ := newTestBot(t)
			ref := tc.ref
			handle(t, b, Event{UserID: 1, Command: CmdAddAttachment, Attachment: &ref})

			if !strings.Contains(n.last(t), tc.wantReply) {
				t.Errorf("reply = %q, want substring %q", n.last(t), tc.wantReply)
			}
			d, _ := s.GetOrCreate(1)
			if len(d.Attachments) != tc.wantCount {
				t.Errorf("attachment count = %d, want %d", len(d.Attachments), tc.wantCount)
			}
			if tc.wantCount == 1 {
				att := d.Attachments[0]
				if att.IsImage && att.IsPDF {
					t.Error("is_image and is_pdf are mutually exclusive")
				}
			}
		})
	}
}

func TestShowListsRowsInOrder(t *testing.T) {
	b, _, n, _ := newTestBot(t)
	handle(t, b, Event{UserID: 1, Command: CmdAddLine, Text: "Coffee;2.50"})
	handle(t, b, Event{UserID: 1, Command: CmdAddLine, Text: "Lunch;9.50"})
	handle(t, b, Event{UserID: 1, Command: CmdShow})

	reply := n.last(t)
	coffee := strings.Index(reply, "- Coffee => €2,50")
	lunch := strings.Index(reply, "- Lunch => €9,50")
	if coffee == -1 || lunch == -1 || coffee > lunch {
		t.Errorf("rows missing or out of order:\n%s", reply)
	}
	if !strings.Contains(reply, "Total is €12,00") {
		t.Errorf("missing total:\n%s", reply)
	}
	if !strings.Contains(reply, "There are 0 attachment(s).") {
		t.Errorf("missing attachment count:\n%s", reply)
	}
}

func TestFinalizeReplies(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		b, _, n, f := newTestBot(t)
		handle(t, b, Event{UserID: 1, Command: CmdFinalize})
		if f.calls != 1 {
			t.Fatalf("finalizer called %d times, want 1", f.calls)
		}
		if !strings.Contains(n.last(t), "✅ Email sent.") {
			t.Errorf("unexpected reply: %q", n.last(t))
		}
	})

	t.Run("not finalizable", func(t *testing.T) {
		b, _, n, f := newTestBot(t)
		f.err = report.ErrNotFinalizable
		handle(t, b, Event{UserID: 1, Command: CmdFinalize})
		handle(t, b, Event{UserID: 1, Command: CmdFinalize})
		if n.replies[0] != n.replies[1] || !strings.Contains(n.last(t), "not valid") {
			t.Errorf("refusal should be idempotent, got %v", n.replies)
		}
	})

	t.Run("send failure", func(t *testing.T) {
		b, _, n, f := newTestBot(t)
		f.err = errors.New("smtp down")
		handle(t, b, Event{UserID: 1, Command: CmdFinalize})
		if !strings.Contains(n.last(t), "Sending failed") {
			t.Errorf("unexpected reply: %q", n.last(t))
		}
	})
}

func TestResetRepliesWithProfile(t *testing.T) {
	b, _, n, _ := newTestBot(t)
	handle(t, b, Event{UserID: 1, Command: CmdSetName, Text: "Jane"})
	handle(t, b, Event{UserID: 1, Command: CmdReset})

	if !strings.Contains(n.last(t), "name: Jane") {
		t.Errorf("reset should echo the profile summary, got %q", n.last(t))
	}
}

func TestParseCommand(t *testing.T) {
	if c, ok := ParseCommand("add_line"); !ok || c != CmdAddLine {
		t.Errorf("ParseCommand(add_line) = %v, %v", c, ok)
	}
	if _, ok := ParseCommand("self_destruct"); ok {
		t.Error("unknown commands must not parse")
	}
}
