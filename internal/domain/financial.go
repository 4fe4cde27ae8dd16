package domain

// FinancialInputs is one month's P&L, balance sheet and cash flow snapshot.
type FinancialInputs struct {
	Period Period `json:"period" yaml:"period"`

	// Profit and loss
	Revenue           float64 `json:"revenue"            yaml:"revenue"`
	COGS              float64 `json:"cogs"               yaml:"cogs"`
	OperatingExpenses float64 `json:"operating_expenses" yaml:"operating_expenses"`
	EBITDA            float64 `json:"ebitda"             yaml:"ebitda"`
	Depreciation      float64 `json:"depreciation"       yaml:"depreciation"`
	InterestExpense   float64 `json:"interest_expense"   yaml:"interest_expense"`
	NetIncome         float64 `json:"net_income"         yaml:"net_income"`

	// Assets
	Cash               float64 `json:"cash"                yaml:"cash"`
	AccountsReceivable float64 `json:"accounts_receivable" yaml:"accounts_receivable"`
	Inventory          float64 `json:"inventory"           yaml:"inventory"`
	CurrentAssets      float64 `json:"current_assets"      yaml:"current_assets"`
	PPE                float64 `json:"ppe"                 yaml:"ppe"`
	TotalAssets        float64 `json:"total_assets"        yaml:"total_assets"`
	TangibleAssets     float64 `json:"tangible_assets"     yaml:"tangible_assets"`

	// Liabilities and equity
	AccountsPayable    float64 `json:"accounts_payable"    yaml:"accounts_payable"`
	CurrentLiabilities float64 `json:"current_liabilities" yaml:"current_liabilities"`
	SeniorDebt         float64 `json:"senior_debt"         yaml:"senior_debt"`
	TrancheDebt        float64 `json:"tranche_debt"        yaml:"tranche_debt"`
	TotalDebt          float64 `json:"total_debt"          yaml:"total_debt"`
	TotalEquity        float64 `json:"total_equity"        yaml:"total_equity"`

	// Cash flow
	OperatingCashFlow   float64 `json:"operating_cash_flow"  yaml:"operating_cash_flow"`
	CapitalExpenditures float64 `json:"capital_expenditures" yaml:"capital_expenditures"`
	FreeCashFlow        float64 `json:"free_cash_flow"       yaml:"free_cash_flow"`
	DebtService         float64 `json:"debt_service"         yaml:"debt_service"`
}

// FieldKind tells the aggregator how a field rolls up over time.
type FieldKind int

const (
	// FieldFlow accumulates over a period and is summed.
	FieldFlow FieldKind = iota
	// FieldStock is a point-in-time balance; the end-of-bucket value wins.
	FieldStock
)

// FinancialField describes one numeric field of FinancialInputs.
type FinancialField struct {
	Name string
	Kind FieldKind
	Ref  func(*FinancialInputs) *float64
}

// FinancialFields lists every numeric field with its aggregation kind.
var FinancialFields = []FinancialField{
	{"revenue", FieldFlow, func(f *FinancialInputs) *float64 { return &f.Revenue }},
	{"cogs", FieldFlow, func(f *FinancialInputs) *float64 { return &f.COGS }},
	{"operating_expenses", FieldFlow, func(f *FinancialInputs) *float64 { return &f.OperatingExpenses }},
	{"ebitda", FieldFlow, func(f *FinancialInputs) *float64 { return &f.EBITDA }},
	{"depreciation", FieldFlow, func(f *FinancialInputs) *float64 { return &f.Depreciation }},
	{"interest_expense", FieldFlow, func(f *FinancialInputs) *float64 { return &f.InterestExpense }},
	{"net_income", FieldFlow, func(f *FinancialInputs) *float64 { return &f.NetIncome }},
	{"operating_cash_flow", FieldFlow, func(f *FinancialInputs) *float64 { return &f.OperatingCashFlow }},
	{"capital_expenditures", FieldFlow, func(f *FinancialInputs) *float64 { return &f.CapitalExpenditures }},
	{"free_cash_flow", FieldFlow, func(f *FinancialInputs) *float64 { return &f.FreeCashFlow }},
	{"debt_service", FieldFlow, func(f *FinancialInputs) *float64 { return &f.DebtService }},

	{"cash", FieldStock, func(f *FinancialInputs) *float64 { return &f.Cash }},
	{"accounts_receivable", FieldStock, func(f *FinancialInputs) *float64 { return &f.AccountsReceivable }},
	{"inventory", FieldStock, func(f *FinancialInputs) *float64 { return &f.Inventory }},
	{"current_assets", FieldStock, func(f *FinancialInputs) *float64 { return &f.CurrentAssets }},
	{"ppe", FieldStock, func(f *FinancialInputs) *float64 { return &f.PPE }},
	{"total_assets", FieldStock, func(f *FinancialInputs) *float64 { return &f.TotalAssets }},
	{"tangible_assets", FieldStock, func(f *FinancialInputs) *float64 { return &f.TangibleAssets }},
	{"accounts_payable", FieldStock, func(f *FinancialInputs) *float64 { return &f.AccountsPayable }},
	{"current_liabilities", FieldStock, func(f *FinancialInputs) *float64 { return &f.CurrentLiabilities }},
	{"senior_debt", FieldStock, func(f *FinancialInputs) *float64 { return &f.SeniorDebt }},
	{"tranche_debt", FieldStock, func(f *FinancialInputs) *float64 { return &f.TrancheDebt }},
	{"total_debt", FieldStock, func(f *FinancialInputs) *float64 { return &f.TotalDebt }},
	{"total_equity", FieldStock, func(f *FinancialInputs) *float64 { return &f.TotalEquity }},
}

// Project is the scenario container the inputs belong to.
type Project struct {
	ID            string `json:"id"             yaml:"id"`
	Name          string `json:"name"           yaml:"name"`
	HorizonMonths int    `json:"horizon_months" yaml:"horizon_months"`
}
