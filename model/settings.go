package model

// Settings is the small per-operator configuration surface. Extra holds
// open key/value entries beyond the typed fields so the namespace stays
// extensible.
type Settings struct {
	// SelectedCountry drives the display timezone derivation in the UI.
	SelectedCountry string
	// DisplayFormat is a display-format preference, e.g. "utc" or "local".
	DisplayFormat string

	Extra map[string]string
}

// SettingsPatch is a partial update; nil fields are left unchanged and
// Extra entries are merged key by key.
type SettingsPatch struct {
	SelectedCountry *string
	DisplayFormat   *string
	Extra           map[string]string
}

// DefaultSettings returns the settings used before any operator choice is
// persisted.
func DefaultSettings() Settings {
	return Settings{
		SelectedCountry: "US",
		DisplayFormat:   "utc",
	}
}

// Merge applies a patch and returns the resulting settings. The receiver is
// not modified.
func (s Settings) Merge(p SettingsPatch) Settings {
	out := s
	if p.SelectedCountry != nil {
		out.SelectedCountry = *p.SelectedCountry
	}
	if p.DisplayFormat != nil {
		out.DisplayFormat = *p.DisplayFormat
	}
	if len(p.Extra) > 0 {
		merged := make(map[string]string, len(s.Extra)+len(p.Extra))
		for k, v := range s.Extra {
			merged[k] = v
		}
		for k, v := range p.Extra {
			merged[k] = v
		}
		out.Extra = merged
	} else if len(s.Extra) > 0 {
		out.Extra = make(map[string]string, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
