package rates

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ParseTableFromPDF opens a tariff sheet PDF at path, extracts its text and
// delegates to ParseTableFromText.
func ParseTableFromPDF(path string) ([]StateRate, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	rc, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}

	return ParseTableFromText(buf.String())
}

var stateRateRe = regexp.MustCompile(`(?m)^\s*([\p{L}][\p{L} ]*?)\s*[:\-–]\s*(?:R\$\s*)?(\d+(?:[.,]\d+)?)`)

// ParseTableFromText extracts "State: rate" pairs from a tariff sheet. Only
// the 26 known states are kept; decimal commas are accepted.
func ParseTableFromText(text string) ([]StateRate, error) {
	var out []StateRate
	for _, m := range stateRateRe.FindAllStringSubmatch(text, -1) {
		state := strings.TrimSpace(m[1])
		if !defaultTable.Has(state) {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", "."), 64)
		if err != nil {
			continue
		}
		out = append(out, StateRate{State: state, RatePerKWh: v})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no state tariffs found in text")
	}
	return out, nil
}
