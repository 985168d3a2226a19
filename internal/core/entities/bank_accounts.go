package entities

import "github.com/JonMunkholm/backoffice/internal/core"

func init() {
	registerBankAccounts()
}

func registerBankAccounts() {
	core.Register(core.EntityTemplate{
		Key:         "bank_accounts",
		DisplayName: "Bank Accounts",
		Fields: []string{
			"name", "bank", "agency", "account_number", "account_type", "initial_balance", "notes",
		},
		Required: []string{"name"},
		Aliases: map[string][]string{
			"name":            {"nome", "conta", "descricao", "descrição", "account"},
			"bank":            {"banco", "instituicao", "instituição"},
			"agency":          {"agencia", "agência", "branch"},
			"account_number":  {"numero_conta", "número da conta", "conta_corrente", "numero", "number"},
			"account_type":    {"tipo", "tipo_conta", "type"},
			"initial_balance": {"saldo_inicial", "saldo inicial", "saldo", "balance", "opening_balance"},
			"notes":           {"observacoes", "observações", "obs"},
		},
		Defaults: map[string]any{
			"initial_balance": 0.0,
		},
		NaturalKeys: []string{"name", "account_number"},
	})
}
