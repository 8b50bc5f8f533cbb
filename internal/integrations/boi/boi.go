// Package boi fetches daily exchange rates from the Bank of Israel XML feed,
// used to normalize foreign-currency transactions to ILS.
package boi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/liorazar/cashcoach/internal/config"
	"github.com/sirupsen/logrus"
)

const cacheTTL = 12 * time.Hour

// RateClient handles integration with the Bank of Israel rate feed
type RateClient struct {
	url    string
	client *http.Client
	log    *logrus.Logger

	mu        sync.Mutex
	rates     map[string]float64 // currency code -> ILS per unit
	fetchedAt time.Time
}

// NewRateClient initializes a Bank of Israel rate client
func NewRateClient(cfg *config.Config, log *logrus.Logger) *RateClient {
	return &RateClient{
		url: cfg.BOIRatesURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// GetRate returns how many ILS one unit of the given currency is worth.
// ILS itself is always 1. Rates are cached for half a day.
func (c *RateClient) GetRate(currency string) (float64, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" || currency == "ILS" {
		return 1, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rates == nil || time.Since(c.fetchedAt) > cacheTTL {
		rates, err := c.fetchRates()
		if err != nil {
			// Keep serving stale rates rather than failing outright.
			if c.rates == nil {
				return 0, err
			}
			c.log.Errorf("Failed to refresh exchange rates, serving stale data: %v", err)
		} else {
			c.rates = rates
			c.fetchedAt = time.Now()
		}
	}

	rate, ok := c.rates[currency]
	if !ok {
		return 0, fmt.Errorf("no exchange rate for %s", currency)
	}
	return rate, nil
}

// fetchRates downloads and parses the daily rate feed
func (c *RateClient) fetchRates() (map[string]float64, error) {
	body, err := c.sendRequest()
	if err != nil {
		return nil, err
	}
	return c.parseXMLResponse(body)
}

// sendRequest downloads the raw XML feed
func (c *RateClient) sendRequest() ([]byte, error) {
	req, err := http.NewRequest("GET", c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	c.log.Debugf("BoI XML response: %d bytes", len(body))
	return body, nil
}

// parseXMLResponse extracts per-currency rates from the feed
func (c *RateClient) parseXMLResponse(rawBody []byte) (map[string]float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %v", err)
	}

	elements := doc.FindElements("//ExchangeRateResponseDTO")
	if len(elements) == 0 {
		// Older feed layout.
		elements = doc.FindElements("//CURRENCIES/CURRENCY")
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("no exchange rate data found in XML")
	}

	rates := make(map[string]float64, len(elements))
	for _, el := range elements {
		code := childText(el, "Key", "CURRENCYCODE")
		rateText := childText(el, "CurrentExchangeRate", "RATE")
		unitText := childText(el, "Unit", "UNIT")
		if code == "" || rateText == "" {
			continue
		}

		rate, err := strconv.ParseFloat(strings.TrimSpace(rateText), 64)
		if err != nil {
			continue
		}
		if unitText != "" {
			if unit, err := strconv.ParseFloat(strings.TrimSpace(unitText), 64); err == nil && unit > 0 {
				rate /= unit
			}
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}

	if len(rates) == 0 {
		return nil, fmt.Errorf("no parsable rates in XML")
	}

	c.log.Infof("Loaded %d exchange rates from Bank of Israel", len(rates))
	return rates, nil
}

// childText returns the text of the first matching child element name.
func childText(el *etree.Element, names ...string) string {
	for _, name := range names {
		if child := el.FindElement("./" + name); child != nil {
			return child.Text()
		}
	}
	return ""
}
