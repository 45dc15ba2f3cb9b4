package kitsu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a numeric upstream field that Kitsu serves either as a JSON number
// or as a numeric string, depending on the field and server version.
type Number float64

// UnmarshalJSON accepts 24, 24.0, "24" and "23.976". Anything else is an error.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return fmt.Errorf("kitsu number: %q is not numeric", text)
		}
		*n = Number(value)
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("kitsu number: %s is not numeric", data)
	}
	*n = Number(value)
	return nil
}

// Float returns the value as float64.
func (n Number) Float() float64 { return float64(n) }

// Int truncates the value toward zero, matching how frame numbers are read.
func (n Number) Int() int { return int(math.Trunc(float64(n))) }
