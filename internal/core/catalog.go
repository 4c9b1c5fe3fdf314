package core

// Catalog lists the categories and accounts offered by the entry forms.
// Categories outside the catalog are still accepted on write.
type Catalog struct {
	Income   []string `json:"income"`
	Expense  []string `json:"expense"`
	Accounts []string `json:"accounts"`
}

var (
	incomeCategories  = []string{"Gaji", "Freelance", "Bonus", "Investasi", "Lainnya"}
	expenseCategories = []string{"Makan", "Transport", "Belanja", "Tagihan", "Hiburan", "Kesehatan"}
	accounts          = []string{"BCA", "Mandiri", "Jago", "Cash"}
)

// DefaultCatalog returns a fresh copy so callers may modify it.
func DefaultCatalog() Catalog {
	return Catalog{
		Income:   append([]string(nil), incomeCategories...),
		Expense:  append([]string(nil), expenseCategories...),
		Accounts: append([]string(nil), accounts...),
	}
}

// Categories returns the suggested categories for typ.
func (c Catalog) Categories(typ TxType) []string {
	switch typ {
	case Income:
		return c.Income
	case Expense:
		return c.Expense
	}
	return nil
}
