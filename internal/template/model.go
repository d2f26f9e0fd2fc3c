package template

import (
	"bytes"
	"encoding/json"
	"strconv"

	"template-mailer/internal/dataset"
	"template-mailer/internal/utils"
)

// TemplateID is the canonical template identifier. Base rows carry the
// dataset id; personal templates use the creation time in milliseconds.
type TemplateID int64

func (id TemplateID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseTemplateID accepts a decimal id as sent in URLs and JSON strings.
func ParseTemplateID(s string) (TemplateID, error) {
	n, err := utils.ParseID(s)
	return TemplateID(n), err
}

// UnmarshalJSON accepts both numbers and numeric strings.
func (id *TemplateID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseTemplateID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}
	parsed, err := ParseTemplateID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id TemplateID) MarshalJSON() ([]byte, error) {
	return []byte(id.String()), nil
}

// Template is a base row or a personal template as returned to clients.
type Template struct {
	ID           TemplateID `json:"id"`
	Name         string     `json:"name"`
	Subject      string     `json:"subject"`
	Body         string     `json:"body"`
	Placeholders *string    `json:"placeholders"`
	ToEmail      string     `json:"toEmail"`
	ToName       *string    `json:"toName"`
	Color        *string    `json:"color,omitempty"`
	Owner        *string    `json:"owner,omitempty"`
}

// ColorUpdate overrides the color of a base row. A nil Color clears it.
type ColorUpdate struct {
	ID    TemplateID `json:"id"`
	Color *string    `json:"color"`
}

// Overlay is the per-user document layered over the base dataset.
type Overlay struct {
	Additions []Template    `json:"additions"`
	Deletions []TemplateID  `json:"deletions"`
	Updates   []ColorUpdate `json:"updates"`
}

// NewOverlay returns an empty overlay whose slices serialize as [].
func NewOverlay() *Overlay {
	return &Overlay{
		Additions: []Template{},
		Deletions: []TemplateID{},
		Updates:   []ColorUpdate{},
	}
}

// normalize replaces nil slices so a stored document always carries all
// three arrays.
func (o *Overlay) normalize() {
	if o.Additions == nil {
		o.Additions = []Template{}
	}
	if o.Deletions == nil {
		o.Deletions = []TemplateID{}
	}
	if o.Updates == nil {
		o.Updates = []ColorUpdate{}
	}
}

// GlobalColors maps a decimal template id to a color shared by every user.
type GlobalColors map[string]*string

// CreateFields is the input of a new personal template. Placeholders may be
// a JSON array of names or a comma separated string.
type CreateFields struct {
	Name         string          `json:"name" validate:"required"`
	Subject      string          `json:"subject" validate:"required"`
	Body         string          `json:"body" validate:"required"`
	ToEmail      string          `json:"toEmail" validate:"required"`
	ToName       *string         `json:"toName"`
	Color        *string         `json:"color"`
	Placeholders json.RawMessage `json:"placeholders"`
}

func fromRow(r dataset.Row) Template {
	return Template{
		ID:           TemplateID(r.ID),
		Name:         r.Name,
		Subject:      r.Subject,
		Body:         r.Body,
		Placeholders: r.Placeholders,
		ToEmail:      r.ToEmail,
		ToName:       r.ToName,
	}
}

func fromRows(rows []dataset.Row) []Template {
	out := make([]Template, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out
}
