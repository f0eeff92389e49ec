package accounts

import "github.com/genfin-dev/genfin/internal/model"

// ChartEntry is one row of a chart-of-accounts template.
type ChartEntry struct {
	ID          int
	Name        string
	Type        model.AccountType
	TaxLine     string
	Description string
}

// DefaultChart returns the default chart of accounts for an entity type.
func DefaultChart(entityType string) []ChartEntry {
	switch entityType {
	case "farm_sole_proprietor":
		return farmChart()
	default:
		return farmChart()
	}
}

func farmChart() []ChartEntry {
	return []ChartEntry{
		{ID: 1010, Name: "Farm Checking", Type: model.AccountTypeAsset, Description: "Primary operating account"},
		{ID: 1020, Name: "Farm Savings", Type: model.AccountTypeAsset, Description: "Reserve account"},
		{ID: 1200, Name: "Accounts Receivable", Type: model.AccountTypeAsset, Description: "Customer invoices outstanding"},
		{ID: 2010, Name: "Accounts Payable", Type: model.AccountTypeLiability, Description: "Vendor bills outstanding"},
		{ID: 2020, Name: "Farm Credit Card", Type: model.AccountTypeLiability},
		{ID: 3010, Name: "Owner's Equity", Type: model.AccountTypeEquity},
		{ID: 3020, Name: "Opening Balances", Type: model.AccountTypeEquity, Description: "Offset for account opening balances"},
		{ID: 4010, Name: "Crop Sales", Type: model.AccountTypeIncome, TaxLine: "schedule_f_1a"},
		{ID: 4020, Name: "Livestock Sales", Type: model.AccountTypeIncome, TaxLine: "schedule_f_1a"},
		{ID: 4030, Name: "Custom Work Income", Type: model.AccountTypeIncome, TaxLine: "schedule_f_8"},
		{ID: 4040, Name: "Interest Income", Type: model.AccountTypeIncome},
		{ID: 5010, Name: "Feed", Type: model.AccountTypeExpense, TaxLine: "schedule_f_16"},
		{ID: 5020, Name: "Seed & Plants", Type: model.AccountTypeExpense, TaxLine: "schedule_f_26"},
		{ID: 5030, Name: "Fertilizer & Lime", Type: model.AccountTypeExpense, TaxLine: "schedule_f_17"},
		{ID: 5040, Name: "Fuel & Oil", Type: model.AccountTypeExpense, TaxLine: "schedule_f_19"},
		{ID: 5050, Name: "Repairs & Maintenance", Type: model.AccountTypeExpense, TaxLine: "schedule_f_25"},
		{ID: 5060, Name: "Veterinary & Breeding", Type: model.AccountTypeExpense, TaxLine: "schedule_f_31"},
		{ID: 5070, Name: "Bank Charges", Type: model.AccountTypeExpense},
	}
}
