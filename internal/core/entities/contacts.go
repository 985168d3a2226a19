package entities

import "github.com/JonMunkholm/backoffice/internal/core"

func init() {
	registerContacts()
}

func registerContacts() {
	core.Register(core.EntityTemplate{
		Key:         "contacts",
		DisplayName: "Contacts",
		Fields: []string{
			"name", "type", "document", "email", "phone",
			"address", "city", "state", "zip_code", "birth_date", "notes",
		},
		Required: []string{"name"},
		Aliases: map[string][]string{
			"name":       {"nome", "razao_social", "razão social", "nome_fantasia", "full_name", "contato", "contact", "cliente", "fornecedor"},
			"type":       {"tipo", "tipo_contato", "kind"},
			"document":   {"cpf_cnpj", "cpf/cnpj", "cpf", "cnpj", "documento", "tax_id"},
			"email":      {"e-mail", "e_mail", "mail"},
			"phone":      {"telefone", "fone", "celular", "mobile", "tel"},
			"address":    {"endereco", "endereço", "logradouro", "street"},
			"city":       {"cidade", "municipio", "município"},
			"state":      {"estado", "uf"},
			"zip_code":   {"cep", "zip", "postal_code"},
			"birth_date": {"data_nascimento", "nascimento", "birthday"},
			"notes":      {"observacoes", "observações", "obs", "note"},
		},
		NaturalKeys: []string{"name", "document", "email"},
		Normalizers: map[string]func(string) string{
			"type":     NormalizeContactType,
			"document": DigitsOnly,
			"email":    NormalizeEmail,
			"state":    NormalizeBrState,
			"zip_code": DigitsOnly,
		},
	})
}
