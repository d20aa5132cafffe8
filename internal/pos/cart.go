package pos

import "github.com/shopspring/decimal"

// Cart is the line item ledger of an order: it owns the lines and keeps unit
// price and discount coupled. The zero value is an empty cart.
type Cart struct {
	lines []LineItem
}

// CategoryTotal is one row of the read-only category summary.
type CategoryTotal struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []LineItem {
	out := make([]LineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int { return len(c.lines) }

// Line returns the line for productID.
func (c *Cart) Line(productID int) (LineItem, bool) {
	if i := c.find(productID); i >= 0 {
		return c.lines[i], true
	}
	return LineItem{}, false
}

func (c *Cart) find(productID int) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddLine adds one unit of a product. An existing line for the product has its
// quantity incremented; its prices are left untouched.
func (c *Cart) AddLine(productID int, name, categoryName string, unitPrice decimal.Decimal) {
	if i := c.find(productID); i >= 0 {
		c.lines[i].Quantity = c.lines[i].Quantity.Add(decimal.NewFromInt(1))
		return
	}
	c.lines = append(c.lines, LineItem{
		ProductID:         productID,
		Name:              name,
		CategoryName:      categoryName,
		Quantity:          decimal.NewFromInt(1),
		UnitPrice:         unitPrice,
		OriginalUnitPrice: unitPrice,
		DiscountPercent:   decimal.Zero,
	})
}

// SetQuantity replaces the quantity of a line. Negative quantities are stored as zero.
func (c *Cart) SetQuantity(productID int, quantity decimal.Decimal) error {
	i := c.find(productID)
	if i < 0 {
		return invalid(ErrLineNotFound, "product_id", "product %d is not in the cart", productID)
	}
	if quantity.IsNegative() {
		quantity = decimal.Zero
	}
	c.lines[i].Quantity = quantity
	return nil
}

// SetUnitPrice overrides the unit price and derives the discount from the
// catalog price: discount = (original - price) / original * 100.
// A price above the catalog price yields a negative discount (a markup).
func (c *Cart) SetUnitPrice(productID int, price decimal.Decimal) error {
	i := c.find(productID)
	if i < 0 {
		return invalid(ErrLineNotFound, "product_id", "product %d is not in the cart", productID)
	}
	if price.IsNegative() {
		return invalid(ErrNegativePrice, "price", "price cannot be negative")
	}
	line := &c.lines[i]
	if line.OriginalUnitPrice.IsZero() {
		return invalid(ErrZeroOriginalPrice, "price", "%s has no catalog price; its price cannot be changed", line.Name)
	}
	line.DiscountPercent = line.OriginalUnitPrice.Sub(price).Div(line.OriginalUnitPrice).Mul(hundred)
	line.UnitPrice = price
	return nil
}

// SetDiscountPercent applies a discount to the catalog price:
// price = original * (1 - percent/100). It is the inverse of SetUnitPrice.
func (c *Cart) SetDiscountPercent(productID int, percent decimal.Decimal) error {
	i := c.find(productID)
	if i < 0 {
		return invalid(ErrLineNotFound, "product_id", "product %d is not in the cart", productID)
	}
	if percent.GreaterThan(hundred) {
		return invalid(ErrDiscountRange, "discount_percent", "discount cannot exceed 100%%")
	}
	line := &c.lines[i]
	line.UnitPrice = line.OriginalUnitPrice.Sub(percentOf(line.OriginalUnitPrice, percent))
	line.DiscountPercent = percent
	return nil
}

// RemoveLine drops the line for productID. Removing an absent product is a no-op.
func (c *Cart) RemoveLine(productID int) {
	if i := c.find(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// SubtotalBase is round2(Σ quantity × unit price). Lines are not rounded individually.
func (c *Cart) SubtotalBase() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Quantity.Mul(l.UnitPrice))
	}
	return Round2(sum)
}

// SubtotalLocal converts the base subtotal with rate.
func (c *Cart) SubtotalLocal(rate decimal.Decimal) decimal.Decimal {
	return ToLocal(c.SubtotalBase(), rate)
}

// GroupByCategory sums line totals per category in first-seen order.
// Lines without a category fold into UncategorizedName.
func (c *Cart) GroupByCategory() []CategoryTotal {
	var out []CategoryTotal
	index := make(map[string]int)
	for _, l := range c.lines {
		name := l.CategoryName
		if name == "" {
			name = UncategorizedName
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CategoryTotal{Name: name, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(l.Quantity.Mul(l.UnitPrice))
	}
	for i := range out {
		out[i].Total = Round2(out[i].Total)
	}
	return out
}

// replace installs lines from a stored draft, restoring the price/discount coupling.
func (c *Cart) replace(lines []LineItem) {
	c.lines = c.lines[:0]
	for _, l := range lines {
		if l.Quantity.IsNegative() {
			l.Quantity = decimal.Zero
		}
		if l.OriginalUnitPrice.IsZero() {
			l.OriginalUnitPrice = l.UnitPrice
		}
		if l.OriginalUnitPrice.IsZero() {
			l.DiscountPercent = decimal.Zero
		} else {
			l.DiscountPercent = l.OriginalUnitPrice.Sub(l.UnitPrice).Div(l.OriginalUnitPrice).Mul(hundred)
		}
		if i := c.find(l.ProductID); i >= 0 {
			c.lines[i].Quantity = c.lines[i].Quantity.Add(l.Quantity)
			continue
		}
		c.lines = append(c.lines, l)
	}
}

