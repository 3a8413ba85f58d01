package model

import "github.com/shopspring/decimal"

// LineItem is a single expense entry: a free-text description and an amount
// rounded to two decimal places.
type LineItem struct {
	Message string          `json:"message"`
	Amount  decimal.Decimal `json:"amount"`
}

// Attachment references a stored receipt by its opaque file handle. At most
// one of IsImage/IsPDF is set.
type Attachment struct {
	FileID  string `json:"file_id"`
	IsImage bool   `json:"is_image,omitempty"`
	IsPDF   bool   `json:"is_pdf,omitempty"`
}

// UserDraft is the accumulating, unsent expense declaration for one user.
type UserDraft struct {
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	IBAN        string       `json:"iban"`
	Rows        []LineItem   `json:"rows"`
	Attachments []Attachment `json:"attachments"`
	SendToBoard bool         `json:"send_to_board"`
	Approved    bool         `json:"approved"`
}

// NewDraft returns a draft with all defaults set.
func NewDraft() *UserDraft {
	return &UserDraft{
		Rows:        []LineItem{},
		Attachments: []Attachment{},
		SendToBoard: true,
	}
}

// Reset clears rows and attachments and turns board sending back on.
// Name, email, IBAN and the approval flag survive a reset.
func (d *UserDraft) Reset() {
	d.Rows = []LineItem{}
	d.Attachments = []Attachment{}
	d.SendToBoard = true
}

// Finalizable reports whether the draft may be compiled and sent: profile
// fields set, at least one row and one attachment, and admin approval given.
func (d *UserDraft) Finalizable() bool {
	return d.Name != "" &&
		d.Email != "" &&
		d.IBAN != "" &&
		len(d.Rows) > 0 &&
		len(d.Attachments) > 0 &&
		d.Approved
}

// Total sums all row amounts.
func (d *UserDraft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, row := range d.Rows {
		total = total.Add(row.Amount)
	}
	return total
}

// Clone returns a deep copy of the draft.
func (d *UserDraft) Clone() *UserDraft {
	c := *d
	c.Rows = append([]LineItem{}, d.Rows...)
	c.Attachments = append([]Attachment{}, d.Attachments...)
	return &c
}
