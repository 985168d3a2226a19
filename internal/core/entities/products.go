package entities

import "github.com/JonMunkholm/backoffice/internal/core"

func init() {
	registerProducts()
}

func registerProducts() {
	core.Register(core.EntityTemplate{
		Key:         "products",
		DisplayName: "Products",
		Fields: []string{
			"name", "sku", "description", "category", "unit", "barcode",
			"quantity", "min_quantity", "cost_price", "sale_price",
		},
		Required: []string{"name"},
		Aliases: map[string][]string{
			"name":         {"nome", "produto", "nome_produto", "product"},
			"sku":          {"codigo", "código", "cod", "code", "referencia", "referência"},
			"description":  {"descricao", "descrição"},
			"category":     {"categoria", "grupo"},
			"unit":         {"unidade", "un", "und"},
			"barcode":      {"ean", "gtin", "codigo_barras", "código de barras"},
			"quantity":     {"quantidade", "qtd", "estoque", "stock"},
			"min_quantity": {"estoque_minimo", "estoque mínimo", "qtd_minima", "min_stock"},
			"cost_price":   {"preco_custo", "preço de custo", "custo", "cost"},
			"sale_price":   {"preco_venda", "preço de venda", "preco", "preço", "price", "valor"},
		},
		Defaults: map[string]any{
			"quantity":   0.0,
			"cost_price": 0.0,
			"sale_price": 0.0,
			"unit":       "UN",
		},
		NaturalKeys: []string{"name", "sku"},
		Normalizers: map[string]func(string) string{
			"unit":    Upper,
			"barcode": DigitsOnly,
		},
	})
}
