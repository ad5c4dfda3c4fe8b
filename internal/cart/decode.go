package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"storefront/pkg/models"
)

// DecodeLines reads a stored cart blob without ever failing. An unreadable
// blob is an empty cart. Entries with missing or unreadable required
// fields are kept with zero quantity and stock; every such problem is
// returned as an ErrMalformedLine.
func DecodeLines(b []byte) ([]models.CartLine, []error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return []models.CartLine{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return []models.CartLine{}, []error{fmt.Errorf("%w: cart is not a list: %v", ErrMalformedLine, err)}
	}

	lines := make([]models.CartLine, 0, len(raw))
	var problems []error
	for i, r := range raw {
		line, err := decodeLine(r)
		if err != nil {
			problems = append(problems, fmt.Errorf("%w: entry %d: %v", ErrMalformedLine, i, err))
			if line == nil {
				continue
			}
		}
		lines = append(lines, *line)
	}
	return lines, problems
}

func decodeLine(b json.RawMessage) (*models.CartLine, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		return nil, fmt.Errorf("not an object")
	}

	var (
		line    models.CartLine
		missing []string
	)

	line.ID = rawString(m["id"])
	if strings.TrimSpace(line.ID) == "" {
		missing = append(missing, "id")
	}
	line.Title = rawString(m["title"])
	line.Color = rawString(m["color"])
	line.Size = rawString(m["size"])
	line.Image = rawString(m["image"])

	price, ok := rawNumber(m["price"])
	if !ok {
		missing = append(missing, "price")
	}
	line.Price = price

	qty, ok := rawNumber(m["quantity"])
	if !ok {
		missing = append(missing, "quantity")
	}
	line.Quantity = models.ToInt(qty)

	stock, ok := rawNumber(m["stock"])
	if !ok {
		missing = append(missing, "stock")
	}
	line.Stock = models.ToInt(stock)

	if v, ok := m["noDeliveryCharge"]; ok {
		var flag bool
		if json.Unmarshal(v, &flag) == nil {
			line.NoDeliveryCharge = flag
		}
	}
	if v, ok := m["deliveryFee"]; ok {
		var fee models.FeeValue
		if fee.UnmarshalJSON(v) == nil {
			line.DeliveryFee = &fee
		}
	}

	if len(missing) == 0 {
		return &line, nil
	}
	if containsAny(missing, "id", "quantity") {
		line.Quantity = 0
		line.Stock = 0
	}
	return &line, fmt.Errorf("missing or invalid %s", strings.Join(missing, ", "))
}

func rawString(b json.RawMessage) string {
	if len(b) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

func rawNumber(b json.RawMessage) (float64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return 0, false
	}
	return models.ParseNumber(v)
}

func containsAny(list []string, want ...string) bool {
	for _, s := range list {
		for _, w := range want {
			if s == w {
				return true
			}
		}
	}
	return false
}
