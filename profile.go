package envato

import (
	"bytes"
	"encoding/json"
)

// ProviderName identifies this strategy to hosts that support several.
const ProviderName = "envato"

// Profile is the normalized Envato user assembled from the account, username
// and email resources. Monetary fields keep the decimal strings the API
// returns.
type Profile struct {
	Provider          string `json:"provider"`
	Image             string `json:"image"`
	FirstName         string `json:"firstname"`
	Surname           string `json:"surname"`
	AvailableEarnings string `json:"available_earnings"`
	TotalDeposits     string `json:"total_deposits"`
	Balance           string `json:"balance"`
	Country           string `json:"country"`
	Username          string `json:"username"`
	Email             string `json:"email"`

	// Raw and JSON hold the account response as received, for diagnostics.
	Raw  string         `json:"-"`
	JSON map[string]any `json:"-"`
}

// DisplayName joins first name and surname, falling back to the username.
func (p *Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.Surname != "":
		return p.FirstName + " " + p.Surname
	case p.FirstName != "":
		return p.FirstName
	case p.Surname != "":
		return p.Surname
	default:
		return p.Username
	}
}

type accountResponse struct {
	Account struct {
		Image             apiString `json:"image"`
		FirstName         apiString `json:"firstname"`
		Surname           apiString `json:"surname"`
		AvailableEarnings apiString `json:"available_earnings"`
		TotalDeposits     apiString `json:"total_deposits"`
		Balance           apiString `json:"balance"`
		Country           apiString `json:"country"`
	} `json:"account"`
}

type usernameResponse struct {
	Username apiString `json:"username"`
}

type emailResponse struct {
	Email apiString `json:"email"`
}

// apiString accepts a JSON string, number or null. The market API has
// returned balances both as "12.50" and 12.5 over time.
type apiString string

func (s *apiString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = apiString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = apiString(num.String())
	return nil
}
