package pos_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"pos-terminal/internal/pos"
)

func TestCart_SubtotalInBothCurrencies(t *testing.T) {
	var c pos.Cart
	c.AddLine(1, "Harina PAN", "Food", dec("10.00"))
	c.AddLine(1, "Harina PAN", "Food", dec("10.00"))

	line, ok := c.Line(1)
	if !ok || !line.Quantity.Equal(dec("2")) {
		t.Fatalf("expected quantity 2 after adding twice, got %+v", line)
	}
	if got := c.SubtotalBase(); !got.Equal(dec("20.00")) {
		t.Errorf("SubtotalBase = %s, want 20.00", got)
	}
	if got := c.SubtotalLocal(dec("40")); !got.Equal(dec("800.00")) {
		t.Errorf("SubtotalLocal = %s, want 800.00", got)
	}
}

func TestCart_DiscountAndPriceAreCoupled(t *testing.T) {
	var c pos.Cart
	c.AddLine(1, "Aceite", "Food", dec("10.00"))

	if err := c.SetDiscountPercent(1, dec("10")); err != nil {
		t.Fatalf("SetDiscountPercent: %v", err)
	}
	line, _ := c.Line(1)
	if !line.UnitPrice.Equal(dec("9.00")) {
		t.Errorf("unit price = %s, want 9.00", line.UnitPrice)
	}

	if err := c.SetUnitPrice(1, dec("8.00")); err != nil {
		t.Fatalf("SetUnitPrice: %v", err)
	}
	line, _ = c.Line(1)
	if !line.DiscountPercent.Equal(dec("20")) {
		t.Errorf("discount = %s, want 20", line.DiscountPercent)
	}
	if !line.OriginalUnitPrice.Equal(dec("10.00")) {
		t.Errorf("original price changed to %s", line.OriginalUnitPrice)
	}

	// Above the catalog price the derived discount goes negative.
	if err := c.SetUnitPrice(1, dec("12.00")); err != nil {
		t.Fatalf("SetUnitPrice: %v", err)
	}
	line, _ = c.Line(1)
	if !line.DiscountPercent.Equal(dec("-20")) {
		t.Errorf("discount = %s, want -20", line.DiscountPercent)
	}
}

func TestCart_PriceDiscountInverseLaw(t *testing.T) {
	tolerance := dec("0.01")
	originals := []string{"10.00", "3.33", "19.99", "0.07", "1234.56"}
	percents := []string{"0", "12.5", "33.333", "50", "99.99", "100"}

	for _, o := range originals {
		for _, p := range percents {
			var c pos.Cart
			c.AddLine(1, "item", "", dec(o))
			if err := c.SetDiscountPercent(1, dec(p)); err != nil {
				t.Fatalf("SetDiscountPercent(%s) on %s: %v", p, o, err)
			}
			line, _ := c.Line(1)
			if err := c.SetUnitPrice(1, line.UnitPrice); err != nil {
				t.Fatalf("SetUnitPrice(%s): %v", line.UnitPrice, err)
			}
			line, _ = c.Line(1)
			if diff := line.DiscountPercent.Sub(dec(p)).Abs(); diff.GreaterThan(tolerance) {
				t.Errorf("original %s, discount %s: round trip gave %s", o, p, line.DiscountPercent)
			}
		}
	}
}

func TestCart_TotalAdditivity(t *testing.T) {
	type item struct{ qty, price string }
	cases := [][]item{
		{{"1", "0.005"}, {"1", "0.005"}},
		{{"3", "3.33"}, {"2", "1.115"}, {"0", "99"}},
		{{"1.5", "2.49"}},
		{},
	}
	for i, items := range cases {
		var c pos.Cart
		sum := decimal.Zero
		for id, it := range items {
			c.AddLine(id+1, "x", "", dec(it.price))
			if err := c.SetQuantity(id+1, dec(it.qty)); err != nil {
				t.Fatal(err)
			}
			sum = sum.Add(dec(it.qty).Mul(dec(it.price)))
		}
		if got, want := c.SubtotalBase(), pos.Round2(sum); !got.Equal(want) {
			t.Errorf("case %d: SubtotalBase = %s, want %s", i, got, want)
		}
	}
}

func TestCart_EdgeCases(t *testing.T) {
	var c pos.Cart
	c.AddLine(1, "Free sample", "", decimal.Zero)
	c.AddLine(2, "Soap", "Hygiene", dec("2.50"))

	if err := c.SetDiscountPercent(1, dec("10")); err != nil {
		t.Errorf("discount on zero-price line should be harmless, got %v", err)
	}
	if err := c.SetUnitPrice(1, dec("1.00")); !errors.Is(err, pos.ErrZeroOriginalPrice) {
		t.Errorf("expected ErrZeroOriginalPrice, got %v", err)
	}
	if err := c.SetUnitPrice(2, dec("-1")); !errors.Is(err, pos.ErrNegativePrice) {
		t.Errorf("expected ErrNegativePrice, got %v", err)
	}
	if err := c.SetDiscountPercent(2, dec("100.01")); !errors.Is(err, pos.ErrDiscountRange) {
		t.Errorf("expected ErrDiscountRange, got %v", err)
	}
	if err := c.SetQuantity(99, dec("1")); !errors.Is(err, pos.ErrLineNotFound) {
		t.Errorf("expected ErrLineNotFound, got %v", err)
	}

	if err := c.SetQuantity(2, dec("-3")); err != nil {
		t.Fatal(err)
	}
	if line, _ := c.Line(2); !line.Quantity.IsZero() {
		t.Errorf("negative quantity should clamp to 0, got %s", line.Quantity)
	}
	if !c.SubtotalBase().IsZero() {
		t.Errorf("zero-quantity lines should contribute nothing, got %s", c.SubtotalBase())
	}

	c.RemoveLine(42)
	if c.Len() != 2 {
		t.Errorf("removing an absent product should be a no-op")
	}
	c.RemoveLine(1)
	if _, ok := c.Line(1); ok || c.Len() != 1 {
		t.Errorf("line 1 should be gone")
	}
}

func TestCart_GroupByCategory(t *testing.T) {
	var c pos.Cart
	c.AddLine(1, "Rice", "Food", dec("1.10"))
	c.AddLine(2, "Soap", "", dec("2.00"))
	c.AddLine(3, "Beans", "Food", dec("3.25"))

	got := c.GroupByCategory()
	want := []pos.CategoryTotal{
		{Name: "Food", Total: dec("4.35")},
		{Name: pos.UncategorizedName, Total: dec("2.00")},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d groups, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Name != want[i].Name || !got[i].Total.Equal(want[i].Total) {
			t.Errorf("group %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
