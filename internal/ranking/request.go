package ranking

import (
	"bytes"
	"encoding/json"

	"github.com/sells-group/dealboard/internal/model"
	"github.com/sells-group/dealboard/internal/validate"
)

// ParseRequest validates a JSON rank request. Supplied preferences are
// overlaid on model.DefaultPreferences, so omitted fields keep their
// permissive defaults.
func ParseRequest(body []byte) (RankRequest, error) {
	var wire struct {
		RankRequest
		Preferences json.RawMessage `json:"preferences"`
	}
	if err := validate.Decode(validate.Rank, body, &wire); err != nil {
		return RankRequest{}, err
	}

	req := wire.RankRequest
	raw := bytes.TrimSpace(wire.Preferences)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return req, nil
	}

	prefs := model.DefaultPreferences()
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return RankRequest{}, &model.ValidationError{Field: "preferences", Message: err.Error()}
	}
	if err := prefs.Validate(); err != nil {
		return RankRequest{}, err
	}
	req.Preferences = &prefs
	return req, nil
}
