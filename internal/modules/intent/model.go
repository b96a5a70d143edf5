package intent

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Intent is the classified purpose of a chat message.
type Intent string

const (
	Buy          Intent = "buy"
	Inquiry      Intent = "inquiry"
	PriceCheck   Intent = "price_check"
	Availability Intent = "availability"
	Bid          Intent = "bid"
	General      Intent = "general"
)

func (i Intent) valid() bool {
	switch i {
	case Buy, Inquiry, PriceCheck, Availability, Bid, General:
		return true
	}
	return false
}

// Text is an optional free-text slot. Model output may carry a string, a number
// or null; the zero value means "not specified" and encodes as null.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(strings.TrimSpace(s))
		if strings.EqualFold(string(*t), "null") {
			*t = ""
		}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	if t == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(t))
}

func (t Text) Present() bool { return t != "" }

var digits = regexp.MustCompile(`\d+`)

// FirstInt returns the first run of digits in the text: "10kg" -> 10, "₹30 per kg" -> 30.
func (t Text) FirstInt() (int, bool) {
	m := digits.FindString(string(t))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Extraction is the structured record pulled out of a chat message.
type Extraction struct {
	ProductType Text   `json:"product_type"`
	Quantity    Text   `json:"quantity"`
	Budget      Text   `json:"budget"`
	Urgency     Text   `json:"urgency"`
	Intent      Intent `json:"intent"`
}

// Fallback is returned whenever extraction cannot produce a usable record.
func Fallback() Extraction { return Extraction{Intent: General} }
