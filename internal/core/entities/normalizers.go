package entities

import (
	"strings"
	"unicode"
)

// BrStates maps Brazilian state names to their two-letter codes.
var BrStates = map[string]string{
	"acre":                "AC",
	"alagoas":             "AL",
	"amapa":               "AP",
	"amapá":               "AP",
	"amazonas":            "AM",
	"bahia":               "BA",
	"ceara":               "CE",
	"ceará":               "CE",
	"distrito federal":    "DF",
	"espirito santo":      "ES",
	"espírito santo":      "ES",
	"goias":               "GO",
	"goiás":               "GO",
	"maranhao":            "MA",
	"maranhão":            "MA",
	"mato grosso":         "MT",
	"mato grosso do sul":  "MS",
	"minas gerais":        "MG",
	"para":                "PA",
	"pará":                "PA",
	"paraiba":             "PB",
	"paraíba":             "PB",
	"parana":              "PR",
	"paraná":              "PR",
	"pernambuco":          "PE",
	"piaui":               "PI",
	"piauí":               "PI",
	"rio de janeiro":      "RJ",
	"rio grande do norte": "RN",
	"rio grande do sul":   "RS",
	"rondonia":            "RO",
	"rondônia":            "RO",
	"roraima":             "RR",
	"santa catarina":      "SC",
	"sao paulo":           "SP",
	"são paulo":           "SP",
	"sergipe":             "SE",
	"tocantins":           "TO",
}

// NormalizeBrState converts Brazilian state names to their 2-letter codes.
// Codes are upper-cased; anything unrecognized is returned trimmed.
func NormalizeBrState(s string) string {
	s = strings.TrimSpace(s)

	if code, ok := BrStates[strings.ToLower(s)]; ok {
		return code
	}

	upper := strings.ToUpper(s)
	for _, code := range BrStates {
		if upper == code {
			return code
		}
	}

	return s
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DigitsOnly strips everything but digits. CPF/CNPJ, CEP and barcodes are
// exported with and without punctuation ("123.456.789-09").
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// Upper upper-cases and trims a code such as a unit of measure.
func Upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// statusValues maps Portuguese and English payment statuses to canonical values.
var statusValues = map[string]string{
	"pendente":  "pending",
	"aberto":    "pending",
	"em aberto": "pending",
	"pending":   "pending",
	"open":      "pending",
	"pago":      "paid",
	"paga":      "paid",
	"paid":      "paid",
	"recebido":  "received",
	"recebida":  "received",
	"received":  "received",
	"vencido":   "overdue",
	"vencida":   "overdue",
	"atrasado":  "overdue",
	"overdue":   "overdue",
	"cancelado": "cancelled",
	"cancelada": "cancelled",
	"cancelled": "cancelled",
	"canceled":  "cancelled",
}

// NormalizeStatus maps a payment status to its canonical value.
// Unknown statuses are lower-cased and kept.
func NormalizeStatus(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	if v, ok := statusValues[key]; ok {
		return v
	}
	return key
}

var frequencyValues = map[string]string{
	"semanal":    "weekly",
	"weekly":     "weekly",
	"quinzenal":  "biweekly",
	"biweekly":   "biweekly",
	"mensal":     "monthly",
	"monthly":    "monthly",
	"bimestral":  "bimonthly",
	"bimonthly":  "bimonthly",
	"trimestral": "quarterly",
	"quarterly":  "quarterly",
	"semestral":  "semiannual",
	"semiannual": "semiannual",
	"anual":      "yearly",
	"yearly":     "yearly",
	"annual":     "yearly",
}

// NormalizeFrequency maps a recurrence to its canonical value.
func NormalizeFrequency(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	if v, ok := frequencyValues[key]; ok {
		return v
	}
	return key
}

// NormalizeContactType maps customer/supplier labels to canonical values.
func NormalizeContactType(s string) string {
	switch key := strings.ToLower(strings.TrimSpace(s)); key {
	case "cliente", "customer", "client":
		return "customer"
	case "fornecedor", "supplier", "vendor":
		return "supplier"
	case "ambos", "both":
		return "both"
	default:
		return key
	}
}
