package cart

import (
	"fmt"
	"math"

	"storefront/pkg/models"
)

// MaxLineQuantity bounds a merged line so repeated adds cannot overflow.
const MaxLineQuantity = math.MaxInt32

func cloneLines(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, len(lines))
	copy(out, lines)
	return out
}

func checkIndex(lines []models.CartLine, i int) error {
	if i < 0 || i >= len(lines) {
		return fmt.Errorf("%w: index %d", ErrLineNotFound, i)
	}
	return nil
}

// Add appends line, or adds its quantity to the line with the same
// id/color/size. The merged quantity is only capped at MaxLineQuantity
// here; the next reconciliation pass clamps it against fresh stock.
func Add(lines []models.CartLine, line models.CartLine) []models.CartLine {
	switch {
	case line.Quantity < 1:
		line.Quantity = 1
	case line.Quantity > MaxLineQuantity:
		line.Quantity = MaxLineQuantity
	}
	out := cloneLines(lines)
	key := line.Key()
	for i := range out {
		if out[i].Key() == key {
			if out[i].Quantity > MaxLineQuantity-line.Quantity {
				out[i].Quantity = MaxLineQuantity
			} else {
				out[i].Quantity += line.Quantity
			}
			if line.Stock > 0 {
				out[i].Stock = line.Stock
			}
			return out
		}
	}
	return append(out, line)
}

// Increment raises a line by one while it stays within stock.
func Increment(lines []models.CartLine, i int) ([]models.CartLine, error) {
	if err := checkIndex(lines, i); err != nil {
		return lines, err
	}
	if lines[i].Quantity >= lines[i].Stock {
		return lines, fmt.Errorf("%w: only %d available", ErrOutOfStock, lines[i].Stock)
	}
	out := cloneLines(lines)
	out[i].Quantity++
	return out, nil
}

// Decrement lowers a line by one but never below one; use Remove to drop it.
func Decrement(lines []models.CartLine, i int) ([]models.CartLine, error) {
	if err := checkIndex(lines, i); err != nil {
		return lines, err
	}
	if lines[i].Quantity <= 1 {
		return lines, nil
	}
	out := cloneLines(lines)
	out[i].Quantity--
	return out, nil
}

// SetQuantity stores q bounded to [1, stock]. clamped reports whether q
// exceeded the stock.
func SetQuantity(lines []models.CartLine, i, q int) (out []models.CartLine, clamped bool, err error) {
	if err := checkIndex(lines, i); err != nil {
		return lines, false, err
	}
	if q < 1 {
		q = 1
	}
	if q > lines[i].Stock {
		q = lines[i].Stock
		clamped = true
	}
	out = cloneLines(lines)
	out[i].Quantity = q
	return out, clamped, nil
}

func Remove(lines []models.CartLine, i int) ([]models.CartLine, error) {
	if err := checkIndex(lines, i); err != nil {
		return lines, err
	}
	out := make([]models.CartLine, 0, len(lines)-1)
	out = append(out, lines[:i]...)
	return append(out, lines[i+1:]...), nil
}
