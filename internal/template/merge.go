package template

// ComputeVisibleTemplates layers an overlay and the global colors over the
// base rows. Base rows that are deleted or shadowed by a personal template
// with the same id are dropped, personal templates follow the remaining
// base rows, then color updates and global colors are applied in that
// order. Inputs are not modified.
func ComputeVisibleTemplates(base []Template, o Overlay, colors GlobalColors) []Template {
	deleted := make(map[TemplateID]struct{}, len(o.Deletions))
	for _, id := range o.Deletions {
		deleted[id] = struct{}{}
	}
	added := make(map[TemplateID]struct{}, len(o.Additions))
	for _, t := range o.Additions {
		added[t.ID] = struct{}{}
	}

	merged := make([]Template, 0, len(base)+len(o.Additions))
	for _, t := range base {
		if _, ok := deleted[t.ID]; ok {
			continue
		}
		if _, ok := added[t.ID]; ok {
			continue
		}
		merged = append(merged, t)
	}
	merged = append(merged, o.Additions...)

	if len(o.Updates) > 0 {
		// last update for an id wins
		updates := make(map[TemplateID]*string, len(o.Updates))
		for _, u := range o.Updates {
			updates[u.ID] = u.Color
		}
		for i := range merged {
			if c, ok := updates[merged[i].ID]; ok {
				merged[i].Color = copyString(c)
			}
		}
	}

	for i := range merged {
		if c, ok := colors[merged[i].ID.String()]; ok {
			merged[i].Color = copyString(c)
		}
	}
	return merged
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
