// Package geo resolves Indian postal codes to a city and state.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
)

var pincodePattern = regexp.MustCompile(`^\d{6}$`)

// Place is the result of a pincode lookup.
type Place struct {
	Pincode string `json:"pincode"`
	City    string `json:"city"`
	State   string `json:"state"`
	Address string `json:"address"`
}

type postOffice struct {
	Name     string `json:"Name"`
	District string `json:"District"`
	State    string `json:"State"`
}

type pincodeResponse struct {
	Message    string       `json:"Message"`
	Status     string       `json:"Status"`
	PostOffice []postOffice `json:"PostOffice"`
}

// PincodeClient calls the India Post pincode API.
type PincodeClient struct {
	baseURL string
	http    *http.Client
}

func NewPincodeClient(baseURL string) *PincodeClient {
	return &PincodeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *PincodeClient) Lookup(ctx context.Context, pincode string) (*Place, error) {
	pincode = strings.TrimSpace(pincode)
	if !pincodePattern.MatchString(pincode) {
		return nil, apperr.Validation("pincode must be 6 digits")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pincode/"+pincode, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.External("pincode lookup failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.External(fmt.Sprintf("pincode lookup returned %d", resp.StatusCode), nil)
	}

	var body []pincodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperr.External("pincode lookup returned malformed data", err)
	}
	if len(body) == 0 || body[0].Status != "Success" || len(body[0].PostOffice) == 0 {
		return nil, apperr.NotFound("no location found for pincode %s", pincode)
	}

	po := body[0].PostOffice[0]
	return &Place{
		Pincode: pincode,
		City:    po.District,
		State:   po.State,
		Address: fmt.Sprintf("%s, %s, %s", po.Name, po.District, po.State),
	}, nil
}
