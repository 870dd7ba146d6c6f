package nav

import "testing"

func TestQuoteDoublesSingleQuotes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ITEM-01", "'ITEM-01'"},
		{"O'Brien", "'O''Brien'"},
		{"a'b'c", "'a''b''c'"},
		{"", "''"},
	}
	for _, c := range cases {
		if got := Quote(c.in); got != c.want {
			t.Errorf("Quote(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEqQuotesValue(t *testing.T) {
	got := Eq("docNo", "MT-250101-1234' or true")
	want := "docNo eq 'MT-250101-1234'' or true'"
	if got != want {
		t.Errorf("Eq = %q, want %q", got, want)
	}
}

func TestEqNum(t *testing.T) {
	if got := EqNum("menuId", 2); got != "menuId eq 2" {
		t.Errorf("EqNum = %q", got)
	}
}

func TestAndSkipsEmptyClauses(t *testing.T) {
	got := And(Eq("a", "1"), "", Eq("b", "2"))
	want := "a eq '1' and b eq '2'"
	if got != want {
		t.Errorf("And = %q, want %q", got, want)
	}
}

func TestOrJoins(t *testing.T) {
	got := Or(Eq("a", "1"), Eq("b", "2"))
	want := "a eq '1' or b eq '2'"
	if got != want {
		t.Errorf("Or = %q, want %q", got, want)
	}
}
