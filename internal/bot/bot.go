// Package bot implements the draft state machine: it consumes inbound command
// events, mutates the per-user draft through the profile store, and replies
// through a Notifier. All validation happens before any mutation.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/declabot/internal/model"
	"github.com/declabot/internal/report"
	"github.com/declabot/internal/store"
	"github.com/declabot/internal/validate"
)

// MaxPDFSize is the largest accepted PDF attachment.
const MaxPDFSize = 10 << 20

// Notifier delivers a user-visible reply. Fire-and-forget from the bot's
// perspective.
type Notifier interface {
	Send(userID int64, text string)
}

// Finalizer compiles and sends a finalizable draft, then resets it.
type Finalizer interface {
	Finalize(ctx context.Context, userID int64) error
}

const helpText = "Set your parameters first with the set_name, set_email and set_iban commands. " +
	"Then add lines to your declaration by sending text like:\n\n" +
	"Groceries; 12.34\n\n" +
	"You can add receipts by uploading photos and PDFs.\n\n" +
	"With set_board you choose whether the report goes only to your own email address or also straight to the board.\n\n" +
	"With reset you start your declaration over (note: send to board is turned back on).\n\n" +
	"With show you see what you have entered so far.\n\n" +
	"With finalize you send the declaration.\n\n" +
	"With profile you see your parameters."

// Bot drives draft mutations in response to events.
type Bot struct {
	store     *store.ProfileStore
	finalizer Finalizer
	notifier  Notifier
	logger    *slog.Logger
}

func New(s *store.ProfileStore, f Finalizer, n Notifier, logger *slog.Logger) *Bot {
	return &Bot{store: s, finalizer: f, notifier: n, logger: logger}
}

// Handle processes one event. Validation failures are reported to the user
// and leave the draft untouched; only storage and internal failures are
// returned as errors.
func (b *Bot) Handle(ctx context.Context, ev Event) error {
	switch ev.Command {
	case CmdSetName:
		return b.setName(ev)
	case CmdSetEmail:
		return b.setEmail(ev)
	case CmdSetIban:
		return b.setIban(ev)
	case CmdSetBoard:
		return b.setBoard(ev)
	case CmdAddLine:
		return b.addLine(ev)
	case CmdAddAttachment:
		return b.addAttachment(ev)
	case CmdReset:
		return b.reset(ev)
	case CmdShow:
		return b.show(ev)
	case CmdProfile:
		return b.profile(ev)
	case CmdHelp:
		b.notifier.Send(ev.UserID, helpText)
		return nil
	case CmdFinalize:
		return b.finalize(ctx, ev)
	default:
		return fmt.Errorf("unknown command %q", ev.Command)
	}
}

func (b *Bot) setName(ev Event) error {
	if ev.Text == "" {
		b.notifier.Send(ev.UserID, "This command expects a value (name).")
		return nil
	}
	if err := b.store.SetName(ev.UserID, ev.Text); err != nil {
		return err
	}
	b.notifier.Send(ev.UserID, fmt.Sprintf("✅ Name changed to %s.", ev.Text))
	return nil
}

func (b *Bot) setEmail(ev Event) error {
	if ev.Text == "" {
		b.notifier.Send(ev.UserID, "This command expects a value (email address).")
		return nil
	}
	if !validate.Email(ev.Text) {
		b.notifier.Send(ev.UserID, "❌ Invalid email address.")
		return nil
	}
	if err := b.store.SetEmail(ev.UserID, ev.Text); err != nil {
		return err
	}
	b.notifier.Send(ev.UserID, fmt.Sprintf("✅ Email address changed to %s.", ev.Text))
	return nil
}

func (b *Bot) setIban(ev Event) error {
	if ev.Text == "" {
		b.notifier.Send(ev.UserID, "This command expects a value (IBAN).")
		return nil
	}
	if !validate.IBAN(ev.Text) {
		b.notifier.Send(ev.UserID, "❌ Invalid IBAN.")
		return nil
	}
	if err := b.store.SetIBAN(ev.UserID, ev.Text); err != nil {
		return err
	}
	b.notifier.Send(ev.UserID, fmt.Sprintf("✅ IBAN changed to %s.", ev.Text))
	return nil
}

func (b *Bot) setBoard(ev Event) error {
	if ev.Text == "" {
		b.notifier.Send(ev.UserID, "This command expects a value (true or false).")
		return nil
	}
	switch strings.ToLower(ev.Text) {
	case "true":
		if err := b.store.SetSendToBoard(ev.UserID, true); err != nil {
			return err
		}
		b.notifier.Send(ev.UserID, "✅ Sending email to the board is now on.")
	case "false":
		if err := b.store.SetSendToBoard(ev.UserID, false); err != nil {
			return err
		}
		b.notifier.Send(ev.UserID, "✅ Sending email to the board is now off.")
	default:
		b.notifier.Send(ev.UserID, "❌ Invalid value. Use true or false.")
	}
	return nil
}

func (b *Bot) addLine(ev Event) error {
	// Stricter than the parser: user input must contain exactly one separator.
	if strings.Count(ev.Text, ";") != 1 {
		b.notifier.Send(ev.UserID, "Enter a line like this:\n\n<Description>; <Amount>\n\nExample:\n\nWeekend groceries; 14.22")
		return nil
	}
	d, err := b.store.AppendRow(ev.UserID, ev.Text)
	if errors.Is(err, validate.ErrLineFormat) {
		b.notifier.Send(ev.UserID, "Enter a line like this:\n\n<Description>; <Amount>\n\nExample:\n\nWeekend groceries; 14.22")
		return nil
	}
	if err != nil {
		return err
	}
	b.notifier.Send(ev.UserID, fmt.Sprintf("✅ Line added. Total is now %s", euro(d.Total())))
	return nil
}

func (b *Bot) addAttachment(ev Event) error {
	ref := ev.Attachment
	if ref == nil {
		b.notifier.Send(ev.UserID, "This command expects an uploaded file.")
		return nil
	}

	att := model.Attachment{FileID: ref.ID}
	switch {
	case strings.HasPrefix(ref.ContentType, "image/"):
		att.IsImage = true
	case ref.ContentType == "application/pdf":
		if ref.Size > MaxPDFSize {
			b.notifier.Send(ev.UserID, "❌ PDFs larger than 10 MB are not supported.")
			return nil
		}
		att.IsPDF = true
	default:
		b.notifier.Send(ev.UserID, "❌ Only compressed images and PDFs can be uploaded.")
		return nil
	}

	d, err := b.store.AppendAttachment(ev.UserID, att)
	if err != nil {
		return err
	}
	kind := "Photo"
	if att.IsPDF {
		kind = "PDF"
	}
	b.notifier.Send(ev.UserID, fmt.Sprintf("✅ %s added. You now have %d attachment(s) ready.", kind, len(d.Attachments)))
	return nil
}

func (b *Bot) reset(ev Event) error {
	if err := b.store.Reset(ev.UserID); err != nil {
		return err
	}
	b.notifier.Send(ev.UserID, "✅ Reset.")
	return b.profile(ev)
}

func (b *Bot) show(ev Event) error {
	d, err := b.store.GetOrCreate(ev.UserID)
	if err != nil {
		return err
	}
	var lines []string
	for _, row := range d.Rows {
		lines = append(lines, fmt.Sprintf("- %s => %s", row.Message, euro(row.Amount)))
	}
	text := fmt.Sprintf("%s\n\nTotal is %s\n\nThere are %d attachment(s).",
		strings.Join(lines, "\n"), euro(d.Total()), len(d.Attachments))
	b.notifier.Send(ev.UserID, text)
	return nil
}

func (b *Bot) profile(ev Event) error {
	summary, err := b.store.Summary(ev.UserID)
	if err != nil {
		return err
	}
	b.notifier.Send(ev.UserID, summary)
	return nil
}

func (b *Bot) finalize(ctx context.Context, ev Event) error {
	err := b.finalizer.Finalize(ctx, ev.UserID)
	switch {
	case err == nil:
		b.notifier.Send(ev.UserID, "✅ Email sent.")
	case errors.Is(err, report.ErrNotFinalizable):
		b.notifier.Send(ev.UserID, "❌ Declaration is not valid.")
	default:
		b.logger.Error("finalize failed", "user_id", ev.UserID, "err", err)
		b.notifier.Send(ev.UserID, "❌ Sending failed. Your declaration is unchanged, please try again later.")
	}
	return nil
}

// euro renders an amount the way it appears in replies: a euro sign and a
// decimal comma.
func euro(d decimal.Decimal) string {
	return "€" + strings.Replace(d.StringFixed(2), ".", ",", 1)
}
