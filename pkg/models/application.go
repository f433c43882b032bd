package models

import "time"

// Application is a loan application as stored by the engine. Read-only here,
// used to populate the run-execution selection.
type Application struct {
	ID            int64       `json:"id"`
	ApplicantName string      `json:"applicant_name"`
	Amount        int64       `json:"amount"`
	MonthlyIncome int64       `json:"monthly_income"`
	DeclaredDebts int64       `json:"declared_debts"`
	Country       string      `json:"country"`
	LoanPurpose   string      `json:"loan_purpose"`
	Status        FinalStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
}
