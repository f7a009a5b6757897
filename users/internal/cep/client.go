// Package cep resolves Brazilian zip codes to full addresses via the ViaCEP
// public API.
package cep

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/compass-ms/usernotify/shared/domain"
	internal_errors "github.com/compass-ms/usernotify/shared/errors"
	"github.com/compass-ms/usernotify/shared/logger"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type viaCepResponse struct {
	Cep         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	Uf          string `json:"uf"`
	Erro        bool   `json:"erro"`
}

// Lookup fetches the address for a zip code. A malformed or unknown code is a
// client error; upstream outages surface as 502.
func (c *Client) Lookup(cepCode string) (domain.Address, error) {
	resp, err := c.http.Get(fmt.Sprintf("%s/ws/%s/json/", c.baseURL, url.PathEscape(cepCode)))
	if err != nil {
		logger.Log.Error("viacep request failed", "cep", cepCode, "error", err)
		return domain.Address{}, &internal_errors.ErrorWithStatusCode{Message: "Zip code service unavailable", StatusCode: http.StatusBadGateway}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return domain.Address{}, &internal_errors.ErrorWithStatusCode{Message: "Invalid zip code", StatusCode: http.StatusBadRequest}
	}
	if resp.StatusCode != http.StatusOK {
		logger.Log.Error("viacep returned unexpected status", "cep", cepCode, "status", resp.StatusCode)
		return domain.Address{}, &internal_errors.ErrorWithStatusCode{Message: "Zip code service unavailable", StatusCode: http.StatusBadGateway}
	}

	var body viaCepResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Address{}, fmt.Errorf("failed to decode viacep response: %w", err)
	}
	if body.Erro {
		return domain.Address{}, &internal_errors.ErrorWithStatusCode{Message: "Zip code not found", StatusCode: http.StatusBadRequest}
	}

	return domain.Address{
		ZipCode:      body.Cep,
		Street:       body.Logradouro,
		Complement:   body.Complemento,
		Neighborhood: body.Bairro,
		City:         body.Localidade,
		State:        body.Uf,
	}, nil
}
