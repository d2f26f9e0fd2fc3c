package template

import (
	"encoding/json"
	"strings"
	"time"

	"template-mailer/internal/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Create appends a personal template owned by owner. The overlay is left
// untouched when a required field is missing.
func (o *Overlay) Create(fields CreateFields, owner string, now time.Time) (Template, error) {
	if err := validate.Struct(fields); err != nil {
		return Template{}, errors.NewValidationError(err)
	}

	t := Template{
		ID:           TemplateID(now.UnixMilli()),
		Name:         fields.Name,
		Subject:      fields.Subject,
		Body:         fields.Body,
		Placeholders: normalizePlaceholders(fields.Placeholders),
		ToEmail:      fields.ToEmail,
		ToName:       nonEmpty(fields.ToName),
		Color:        nonEmpty(fields.Color),
	}
	if owner != "" {
		t.Owner = &owner
	}

	o.normalize()
	o.Additions = append(o.Additions, t)
	return t, nil
}

// UpdateColor recolors a personal template. Base rows are not reachable
// through this method.
func (o *Overlay) UpdateColor(id TemplateID, color *string) error {
	i := o.additionIndex(id)
	if i < 0 {
		return errors.NotFound("template not found", nil)
	}
	o.Additions[i].Color = copyString(color)
	o.pruneUpdates(id)
	return nil
}

// Delete removes a personal template. A non-nil confirmName must match the
// stored name exactly.
func (o *Overlay) Delete(id TemplateID, confirmName *string) error {
	i := o.additionIndex(id)
	if i < 0 {
		return errors.NotFound("template not found", nil)
	}
	if confirmName != nil && *confirmName != o.Additions[i].Name {
		return errors.ConfirmationMismatch("confirmation name does not match")
	}
	o.Additions = append(o.Additions[:i:i], o.Additions[i+1:]...)
	o.pruneUpdates(id)
	return nil
}

// SetBaseColor records a color override for a base row, replacing any
// earlier override for the same id.
func (o *Overlay) SetBaseColor(id TemplateID, color *string) {
	o.normalize()
	o.pruneUpdates(id)
	o.Updates = append(o.Updates, ColorUpdate{ID: id, Color: copyString(color)})
}

// Hide tombstones a base row for this user.
func (o *Overlay) Hide(id TemplateID) {
	o.normalize()
	for _, d := range o.Deletions {
		if d == id {
			return
		}
	}
	o.Deletions = append(o.Deletions, id)
}

// Restore brings back a hidden base row with its dataset color.
func (o *Overlay) Restore(id TemplateID) {
	o.normalize()
	o.pruneDeletions(id)
	o.pruneUpdates(id)
}

func (o *Overlay) additionIndex(id TemplateID) int {
	for i, t := range o.Additions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (o *Overlay) pruneDeletions(id TemplateID) {
	kept := make([]TemplateID, 0, len(o.Deletions))
	for _, d := range o.Deletions {
		if d != id {
			kept = append(kept, d)
		}
	}
	o.Deletions = kept
}

func (o *Overlay) pruneUpdates(id TemplateID) {
	kept := make([]ColorUpdate, 0, len(o.Updates))
	for _, u := range o.Updates {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	o.Updates = kept
}

// normalizePlaceholders turns a JSON array of names or a comma separated
// string into a serialized JSON array. Empty input and any other shape
// give nil.
func normalizePlaceholders(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}

	var names []string
	var list []string
	var csv string
	switch {
	case json.Unmarshal(raw, &list) == nil:
		names = list
	case json.Unmarshal(raw, &csv) == nil:
		names = strings.Split(csv, ",")
	default:
		return nil
	}

	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	data, err := json.Marshal(cleaned)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
