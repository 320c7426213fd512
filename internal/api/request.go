package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/torosent/querybench/internal/config"
)

// StringList accepts either a JSON array of strings or one comma-delimited
// string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = config.SplitList(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expected an array of strings or a comma-separated string")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*l = out
	return nil
}

type compareBody struct {
	Drivers     StringList `json:"drivers"`
	Queries     StringList `json:"queries"`
	SampleCount *int       `json:"sampleCount"`
}

// parseSampleCount reads a query string value; empty means unset.
func parseSampleCount(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("sampleCount must be an integer, got %q", raw)
	}
	return &n, nil
}
