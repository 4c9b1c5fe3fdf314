package core

import "testing"

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if len(c.Categories(Income)) != 5 || c.Income[0] != "Gaji" {
		t.Errorf("income = %v", c.Income)
	}
	if len(c.Categories(Expense)) != 6 || c.Expense[0] != "Makan" {
		t.Errorf("expense = %v", c.Expense)
	}
	if c.Accounts[0] != DefaultAccount {
		t.Errorf("first account = %q, want the default", c.Accounts[0])
	}
	if c.Categories("transfer") != nil {
		t.Error("unknown type should have no categories")
	}

	c.Expense[0] = "changed"
	if DefaultCatalog().Expense[0] != "Makan" {
		t.Error("DefaultCatalog must return a copy")
	}
}
