package boi

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func testClient() *RateClient {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &RateClient{log: log}
}

func TestParseXMLResponseCurrentFeed(t *testing.T) {
	xml := `<?xml version="1.0" encoding="utf-8"?>
<ExchangeRatesResponseCollectioDTO>
  <ExchangeRates>
    <ExchangeRateResponseDTO>
      <Key>USD</Key>
      <CurrentExchangeRate>3.72</CurrentExchangeRate>
      <Unit>1</Unit>
    </ExchangeRateResponseDTO>
    <ExchangeRateResponseDTO>
      <Key>JPY</Key>
      <CurrentExchangeRate>2.45</CurrentExchangeRate>
      <Unit>100</Unit>
    </ExchangeRateResponseDTO>
  </ExchangeRates>
</ExchangeRatesResponseCollectioDTO>`

	rates, err := testClient().parseXMLResponse([]byte(xml))
	if err != nil {
		t.Fatalf("parseXMLResponse failed: %v", err)
	}
	if got := rates["USD"]; got != 3.72 {
		t.Errorf("USD rate = %f, want 3.72", got)
	}
	// A 100-unit quote is normalized to a per-unit rate.
	if got := rates["JPY"]; got != 0.0245 {
		t.Errorf("JPY rate = %f, want 0.0245", got)
	}
}

func TestParseXMLResponseLegacyFeed(t *testing.T) {
	xml := `<?xml version="1.0" encoding="utf-8"?>
<CURRENCIES>
  <CURRENCY>
    <CURRENCYCODE>EUR</CURRENCYCODE>
    <RATE>4.05</RATE>
    <UNIT>1</UNIT>
  </CURRENCY>
</CURRENCIES>`

	rates, err := testClient().parseXMLResponse([]byte(xml))
	if err != nil {
		t.Fatalf("parseXMLResponse failed: %v", err)
	}
	if got := rates["EUR"]; got != 4.05 {
		t.Errorf("EUR rate = %f, want 4.05", got)
	}
}

func TestParseXMLResponseSkipsMalformedEntries(t *testing.T) {
	xml := `<?xml version="1.0" encoding="utf-8"?>
<ExchangeRates>
  <ExchangeRateResponseDTO>
    <Key>USD</Key>
    <CurrentExchangeRate>not-a-number</CurrentExchangeRate>
  </ExchangeRateResponseDTO>
  <ExchangeRateResponseDTO>
    <Key>GBP</Key>
    <CurrentExchangeRate>4.70</CurrentExchangeRate>
  </ExchangeRateResponseDTO>
</ExchangeRates>`

	rates, err := testClient().parseXMLResponse([]byte(xml))
	if err != nil {
		t.Fatalf("parseXMLResponse failed: %v", err)
	}
	if _, ok := rates["USD"]; ok {
		t.Error("unparsable rate should be skipped")
	}
	if got := rates["GBP"]; got != 4.70 {
		t.Errorf("GBP rate = %f, want 4.70", got)
	}
}

func TestParseXMLResponseEmpty(t *testing.T) {
	if _, err := testClient().parseXMLResponse([]byte(`<empty/>`)); err == nil {
		t.Error("expected an error for a feed without rates")
	}
}

func TestGetRateILS(t *testing.T) {
	rate, err := testClient().GetRate("ils")
	if err != nil {
		t.Fatalf("GetRate(ils) failed: %v", err)
	}
	if rate != 1 {
		t.Errorf("ILS rate = %f, want 1", rate)
	}
}
