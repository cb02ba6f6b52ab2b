package analytics

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"

	json "github.com/goccy/go-json"
)

// Percent is a fixed-point percentage in tenths of a percent, so 667 is 66.7%.
type Percent int

func percentOf(n, total int) Percent {
	if total <= 0 {
		return 0
	}
	// Round the exact decimal value of the float64 share half-up to tenths.
	// 23/80 is 28.749999... as a double and gives 28.7.
	x := new(big.Rat).SetFloat64(float64(n) / float64(total) * 100)
	if x == nil {
		return 0
	}
	x.Mul(x, big.NewRat(10, 1))
	x.Add(x, big.NewRat(1, 2))
	q := new(big.Int).Quo(x.Num(), x.Denom())
	return Percent(q.Int64())
}

// String renders the value with exactly one fractional digit, e.g. "66.7".
func (p Percent) String() string {
	sign := ""
	if p < 0 {
		sign = "-"
		p = -p
	}
	return fmt.Sprintf("%s%d.%d", sign, int(p)/10, int(p)%10)
}

// MarshalJSON encodes the rendered text form, e.g. "66.7".
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

// UnmarshalJSON accepts the text form or a bare number. null leaves p unchanged.
func (p *Percent) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse percent %q: %w", s, err)
	}
	if f < 0 {
		*p = Percent(f*10 - 0.5)
	} else {
		*p = Percent(f*10 + 0.5)
	}
	return nil
}

// CountryCount is one entry of the per-country distribution.
type CountryCount struct {
	Country string
	Count   int
}

// CountryCounts is ordered by count descending, ties in first-seen order.
type CountryCounts []CountryCount

// MarshalJSON encodes the list as a JSON object whose key order follows the list.
func (c CountryCounts) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, cc := range c {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(cc.Country)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(cc.Count))
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping the key order found in the input.
func (c *CountryCounts) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("users_by_country: expected object")
	}
	out := CountryCounts{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("users_by_country: expected string key")
		}
		var n int
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("users_by_country[%s]: %w", key, err)
		}
		out = append(out, CountryCount{Country: key, Count: n})
	}
	*c = out
	return nil
}
