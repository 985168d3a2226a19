package entities

import "github.com/JonMunkholm/backoffice/internal/core"

func init() {
	registerReceivables()
	registerPayables()
	registerRecurringBills()
}

// entryFields are shared by receivables and payables.
var entryFields = []string{
	"description", "contact_name", "document_number", "category", "bank_account",
	"amount", "paid_amount", "interest", "discount", "installment", "installments",
	"issue_date", "due_date", "payment_date", "status", "notes",
}

// entryAliases returns the aliases shared by receivables and payables, with
// the counterparty synonyms given first for contact_name.
func entryAliases(counterparty ...string) map[string][]string {
	return map[string][]string{
		"description":     {"descricao", "descrição", "historico", "histórico", "memo"},
		"contact_name":    append(counterparty, "contato", "contact", "nome", "name"),
		"document_number": {"numero_documento", "nº documento", "documento", "nota_fiscal", "nf", "invoice", "doc"},
		"category":        {"categoria", "plano_de_contas", "plano de contas"},
		"bank_account":    {"conta", "conta_bancaria", "conta bancária", "account"},
		"amount":          {"valor", "valor_total", "valor total", "total", "value"},
		"paid_amount":     {"valor_pago", "valor pago", "valor_recebido", "valor recebido", "paid"},
		"interest":        {"juros", "multa"},
		"discount":        {"desconto"},
		"installment":     {"parcela", "n_parcela"},
		"installments":    {"parcelas", "total_parcelas", "qtd_parcelas"},
		"issue_date":      {"emissao", "emissão", "data_emissao", "data de emissão", "issued"},
		"due_date":        {"vencimento", "data_vencimento", "data de vencimento", "due"},
		"payment_date":    {"data_pagamento", "data de pagamento", "pagamento", "data_recebimento", "recebimento", "paid_at"},
		"status":          {"situacao", "situação", "estado"},
		"notes":           {"observacoes", "observações", "obs"},
	}
}

var entryNormalizers = map[string]func(string) string{
	"status": NormalizeStatus,
}

func registerReceivables() {
	core.Register(core.EntityTemplate{
		Key:         "receivables",
		DisplayName: "Accounts Receivable",
		Fields:      entryFields,
		Required:    []string{"description", "amount", "due_date"},
		Aliases:     entryAliases("cliente", "customer", "sacado"),
		Defaults: map[string]any{
			"status": "pending",
		},
		NaturalKeys: []string{"document_number"},
		References:  []string{"contacts", "bank_accounts"},
		Normalizers: entryNormalizers,
	})
}

func registerPayables() {
	core.Register(core.EntityTemplate{
		Key:         "payables",
		DisplayName: "Accounts Payable",
		Fields:      entryFields,
		Required:    []string{"description", "amount", "due_date"},
		Aliases:     entryAliases("fornecedor", "supplier", "vendor", "favorecido"),
		Defaults: map[string]any{
			"status": "pending",
		},
		NaturalKeys: []string{"document_number"},
		References:  []string{"contacts", "bank_accounts"},
		Normalizers: entryNormalizers,
	})
}

func registerRecurringBills() {
	core.Register(core.EntityTemplate{
		Key:         "recurring_bills",
		DisplayName: "Recurring Bills",
		Fields: []string{
			"description", "contact_name", "category", "bank_account",
			"amount", "frequency", "day_of_month", "start_date", "end_date", "notes",
		},
		Required: []string{"description", "amount"},
		Aliases: map[string][]string{
			"description":  {"descricao", "descrição", "conta", "bill"},
			"contact_name": {"fornecedor", "favorecido", "supplier", "vendor", "contato"},
			"category":     {"categoria", "plano_de_contas"},
			"bank_account": {"conta_bancaria", "conta bancária", "account"},
			"amount":       {"valor", "value"},
			"frequency":    {"frequencia", "frequência", "periodicidade", "recorrencia", "recorrência"},
			"day_of_month": {"dia_vencimento", "dia de vencimento", "dia", "due_day"},
			"start_date":   {"inicio", "início", "data_inicio", "data de início", "start"},
			"end_date":     {"fim", "termino", "término", "data_fim", "end"},
			"notes":        {"observacoes", "observações", "obs"},
		},
		Defaults: map[string]any{
			"frequency": "monthly",
		},
		NaturalKeys: []string{"description"},
		References:  []string{"contacts", "bank_accounts"},
		Normalizers: map[string]func(string) string{
			"frequency": NormalizeFrequency,
		},
	})
}
