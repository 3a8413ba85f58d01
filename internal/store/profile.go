// Package store persists the per-user drafts as a single JSON document on
// disk. Every mutation rewrites the whole file synchronously before it is
// considered committed, so a crash between commands never loses data.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/declabot/internal/model"
	"github.com/declabot/internal/validate"
)

// ProfileStore is a durable map from numeric user id to draft. JSON object
// keys are strings on disk but are restored to int64 identity on load.
type ProfileStore struct {
	mu     sync.Mutex
	path   string
	drafts map[int64]*model.UserDraft
}

// Open loads the document at path, or initializes an empty one if the file
// does not exist yet.
func Open(path string) (*ProfileStore, error) {
	s := &ProfileStore{path: path, drafts: make(map[int64]*model.UserDraft)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read draft store: %w", err)
	}
	if err := json.Unmarshal(data, &s.drafts); err != nil {
		return nil, fmt.Errorf("decode draft store %s: %w", path, err)
	}
	return s, nil
}

// GetOrCreate returns a snapshot of the user's draft, creating and persisting
// a default one on first access.
func (s *ProfileStore) GetOrCreate(userID int64) (model.UserDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.getOrCreateLocked(userID)
	if err != nil {
		return model.UserDraft{}, err
	}
	return *d.Clone(), nil
}

func (s *ProfileStore) getOrCreateLocked(userID int64) (*model.UserDraft, error) {
	if d, ok := s.drafts[userID]; ok {
		return d, nil
	}
	d := model.NewDraft()
	s.drafts[userID] = d
	if err := s.persistLocked(); err != nil {
		delete(s.drafts, userID)
		return nil, err
	}
	return d, nil
}

// mutate applies fn to the user's draft and persists the result. If the
// durable write fails the in-memory draft is rolled back, so nothing is
// committed that isn't on disk.
func (s *ProfileStore) mutate(userID int64, fn func(*model.UserDraft)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.getOrCreateLocked(userID)
	if err != nil {
		return err
	}
	prev := d.Clone()
	fn(d)
	if err := s.persistLocked(); err != nil {
		s.drafts[userID] = prev
		return err
	}
	return nil
}

// SetName updates the user's display name.
func (s *ProfileStore) SetName(userID int64, name string) error {
	return s.mutate(userID, func(d *model.UserDraft) { d.Name = name })
}

// SetEmail updates the user's email address. Syntax validation happens at the
// command layer; the store writes what it is given.
func (s *ProfileStore) SetEmail(userID int64, email string) error {
	return s.mutate(userID, func(d *model.UserDraft) { d.Email = email })
}

// SetIBAN updates the user's bank account number.
func (s *ProfileStore) SetIBAN(userID int64, iban string) error {
	return s.mutate(userID, func(d *model.UserDraft) { d.IBAN = iban })
}

// SetSendToBoard toggles whether finalized reports also go to the board.
func (s *ProfileStore) SetSendToBoard(userID int64, v bool) error {
	return s.mutate(userID, func(d *model.UserDraft) { d.SendToBoard = v })
}

// SetApproved records the administrative approval decision.
func (s *ProfileStore) SetApproved(userID int64, v bool) error {
	return s.mutate(userID, func(d *model.UserDraft) { d.Approved = v })
}

// AppendRow parses raw as "<description>;<amount>" and appends the resulting
// line item. The updated draft snapshot is returned so callers can show the
// new running total. Parse failures leave the draft untouched.
func (s *ProfileStore) AppendRow(userID int64, raw string) (model.UserDraft, error) {
	row, err := validate.ParseLineItem(raw)
	if err != nil {
		return model.UserDraft{}, err
	}
	return s.appendAndSnapshot(userID, func(d *model.UserDraft) {
		d.Rows = append(d.Rows, row)
	})
}

// AppendAttachment appends an attachment reference and returns the updated
// draft snapshot.
func (s *ProfileStore) AppendAttachment(userID int64, att model.Attachment) (model.UserDraft, error) {
	return s.appendAndSnapshot(userID, func(d *model.UserDraft) {
		d.Attachments = append(d.Attachments, att)
	})
}

func (s *ProfileStore) appendAndSnapshot(userID int64, fn func(*model.UserDraft)) (model.UserDraft, error) {
	if err := s.mutate(userID, fn); err != nil {
		return model.UserDraft{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.drafts[userID].Clone(), nil
}

// Reset clears the user's rows and attachments and re-enables board sending.
func (s *ProfileStore) Reset(userID int64) error {
	return s.mutate(userID, func(d *model.UserDraft) { d.Reset() })
}

// Finalizable reports whether the user's draft passes the validity invariant.
func (s *ProfileStore) Finalizable(userID int64) (bool, error) {
	d, err := s.GetOrCreate(userID)
	if err != nil {
		return false, err
	}
	return d.Finalizable(), nil
}

// Summary renders the user's profile fields as labeled lines.
func (s *ProfileStore) Summary(userID int64) (string, error) {
	d, err := s.GetOrCreate(userID)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n", d.Name)
	fmt.Fprintf(&b, "email: %s\n", d.Email)
	fmt.Fprintf(&b, "IBAN: %s\n", d.IBAN)
	fmt.Fprintf(&b, "send to board: %s\n", strconv.FormatBool(d.SendToBoard))
	fmt.Fprintf(&b, "approved: %s\n", strconv.FormatBool(d.Approved))
	return b.String(), nil
}

// persistLocked writes the full document to a temp file and renames it over
// the store path. Callers must hold s.mu (or be the only reference, as in Open).
func (s *ProfileStore) persistLocked() error {
	data, err := json.MarshalIndent(s.drafts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode draft store: %w", err)
	}
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("write draft store: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write draft store: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync draft store: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close draft store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace draft store: %w", err)
	}
	return nil
}
