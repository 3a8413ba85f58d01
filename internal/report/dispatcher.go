// Package report turns a finalizable draft into a sent expense report. The
// dispatcher owns the recipient policy and the no-partial-send rule; rendering
// and transport live behind the Renderer interface.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/declabot/internal/model"
)

// ErrNotFinalizable is returned when finalize is attempted on a draft that
// does not pass the validity invariant. The draft is left untouched.
var ErrNotFinalizable = errors.New("declaration is not finalizable")

// ErrNoRecipient guards against a finalize that would be sent to nobody.
var ErrNoRecipient = errors.New("declaration has no recipient email")

// File is one attachment's binary content plus its type flags.
type File struct {
	Data    []byte
	IsImage bool
	IsPDF   bool
}

// Payload is everything the renderer needs to compile and send one report.
type Payload struct {
	Name        string
	IBAN        string
	Rows        []model.LineItem
	Attachments []File
}

// Fetcher resolves a stored attachment handle to its bytes.
type Fetcher interface {
	Fetch(ctx context.Context, fileID string) ([]byte, error)
}

// Renderer compiles a payload into a document and delivers it to the
// recipients. It is the only interface to document generation and email.
type Renderer interface {
	RenderAndSend(ctx context.Context, p Payload, recipients []string) error
}

type drafts interface {
	GetOrCreate(userID int64) (model.UserDraft, error)
	Reset(userID int64) error
}

// Dispatcher assembles and sends finalized reports.
type Dispatcher struct {
	store    drafts
	fetcher  Fetcher
	renderer Renderer
	board    []string
	logger   *slog.Logger
}

// NewDispatcher returns a dispatcher that sends to board in addition to the
// user's own address whenever the draft's send_to_board flag is set.
func NewDispatcher(store drafts, fetcher Fetcher, renderer Renderer, board []string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, fetcher: fetcher, renderer: renderer, board: board, logger: logger}
}

// Finalize validates, compiles and sends the user's draft, then resets it.
// Any failure before the send leaves the draft fully intact so the user can
// retry without re-entering data.
func (d *Dispatcher) Finalize(ctx context.Context, userID int64) error {
	draft, err := d.store.GetOrCreate(userID)
	if err != nil {
		return err
	}
	if !draft.Finalizable() {
		return ErrNotFinalizable
	}
	if draft.Email == "" {
		return ErrNoRecipient
	}

	payload := Payload{Name: draft.Name, IBAN: draft.IBAN, Rows: draft.Rows}
	for _, att := range draft.Attachments {
		data, err := d.fetcher.Fetch(ctx, att.FileID)
		if err != nil {
			return fmt.Errorf("fetch attachment %s: %w", att.FileID, err)
		}
		payload.Attachments = append(payload.Attachments, File{
			Data:    data,
			IsImage: att.IsImage,
			IsPDF:   att.IsPDF,
		})
	}

	recipients := []string{draft.Email}
	if draft.SendToBoard {
		recipients = append(recipients, d.board...)
	}

	if err := d.renderer.RenderAndSend(ctx, payload, recipients); err != nil {
		return fmt.Errorf("send report: %w", err)
	}

	if err := d.store.Reset(userID); err != nil {
		return fmt.Errorf("reset draft after send: %w", err)
	}

	d.logger.Info("report sent",
		"user_id", userID,
		"rows", len(payload.Rows),
		"attachments", len(payload.Attachments),
		"recipients", len(recipients))
	return nil
}
