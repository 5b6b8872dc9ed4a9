package ingest

import (
	"sort"
	"strings"
)

// endpoints maps canonical court codes to the public DataJud search URLs.
// State courts only; labor and federal branches are out of scope.
var endpoints = map[string]string{
	"TJAC":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjac/_search",
	"TJAL":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjal/_search",
	"TJAM":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjam/_search",
	"TJAP":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjap/_search",
	"TJBA":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjba/_search",
	"TJCE":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjce/_search",
	"TJDFT": "https://api-publica.datajud.cnj.jus.br/api_publica_tjdft/_search",
	"TJES":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjes/_search",
	"TJGO":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjgo/_search",
	"TJMA":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjma/_search",
	"TJMG":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjmg/_search",
	"TJMS":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjms/_search",
	"TJMT":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjmt/_search",
	"TJPA":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjpa/_search",
	"TJPB":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjpb/_search",
	"TJPE":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjpe/_search",
	"TJPI":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjpi/_search",
	"TJPR":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjpr/_search",
	"TJRJ":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjrj/_search",
	"TJRN":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjrn/_search",
	"TJRO":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjro/_search",
	"TJRR":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjrr/_search",
	"TJRS":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjrs/_search",
	"TJSC":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjsc/_search",
	"TJSE":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjse/_search",
	"TJSP":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjsp/_search",
	"TJTO":  "https://api-publica.datajud.cnj.jus.br/api_publica_tjto/_search",
}

// aliases maps the spellings that show up in spreadsheets (dashed codes,
// bare state abbreviations, full court names) to canonical codes.
var aliases = map[string]string{
	"TJ-AC": "TJAC", "TRIBUNAL DE JUSTIÇA DO ACRE": "TJAC", "AC": "TJAC",
	"TJ-AL": "TJAL", "TRIBUNAL DE JUSTIÇA DE ALAGOAS": "TJAL", "AL": "TJAL",
	"TJ-AM": "TJAM", "TRIBUNAL DE JUSTIÇA DO AMAZONAS": "TJAM", "AM": "TJAM",
	"TJ-AP": "TJAP", "TRIBUNAL DE JUSTIÇA DO AMAPÁ": "TJAP", "AP": "TJAP",
	"TJ-BA": "TJBA", "TRIBUNAL DE JUSTIÇA DA BAHIA": "TJBA", "BA": "TJBA",
	"TJ-CE": "TJCE", "TRIBUNAL DE JUSTIÇA DO CEARÁ": "TJCE", "CE": "TJCE",
	"TJ-DF": "TJDFT", "TRIBUNAL DE JUSTIÇA DO DISTRITO FEDERAL": "TJDFT", "DF": "TJDFT",
	"TJ-ES": "TJES", "TRIBUNAL DE JUSTIÇA DO ESPÍRITO SANTO": "TJES", "ES": "TJES",
	"TJ-GO": "TJGO", "TRIBUNAL DE JUSTIÇA DE GOIÁS": "TJGO", "GO": "TJGO",
	"TJ-MA": "TJMA", "TRIBUNAL DE JUSTIÇA DO MARANHÃO": "TJMA", "MA": "TJMA",
	"TJ-MG": "TJMG", "TRIBUNAL DE JUSTIÇA DE MINAS GERAIS": "TJMG", "MG": "TJMG",
	"TJ-MS": "TJMS", "TRIBUNAL DE JUSTIÇA DE MATO GROSSO DO SUL": "TJMS", "MS": "TJMS",
	"TJ-MT": "TJMT", "TRIBUNAL DE JUSTIÇA DE MATO GROSSO": "TJMT", "MT": "TJMT",
	"TJ-PA": "TJPA", "TRIBUNAL DE JUSTIÇA DO PARÁ": "TJPA", "PA": "TJPA",
	"TJ-PB": "TJPB", "TRIBUNAL DE JUSTIÇA DA PARAIBA": "TJPB", "PB": "TJPB",
	"TJ-PE": "TJPE", "TRIBUNAL DE JUSTIÇA DE PERNAMBUCO": "TJPE", "PE": "TJPE",
	"TJ-PI": "TJPI", "TRIBUNAL DE JUSTIÇA DO PIAUÍ": "TJPI", "PI": "TJPI",
	"TJ-PR": "TJPR", "TRIBUNAL DE JUSTIÇA DO PARANÁ": "TJPR", "PR": "TJPR",
	"TJ-RJ": "TJRJ", "TRIBUNAL DE JUSTIÇA DO RIO DE JANEIRO": "TJRJ", "RJ": "TJRJ",
	"TJ-RN": "TJRN", "TRIBUNAL DE JUSTIÇA DO RIO GRANDE DO NORTE": "TJRN", "RN": "TJRN",
	"TJ-RO": "TJRO", "TRIBUNAL DE JUSTIÇA DE RONDÔNIA": "TJRO", "RO": "TJRO",
	"TJ-RR": "TJRR", "TRIBUNAL DE JUSTIÇA DE RORAIMA": "TJRR", "RR": "TJRR",
	"TJ-RS": "TJRS", "TRIBUNAL DE JUSTIÇA DO RIO GRANDE DO SUL": "TJRS", "RS": "TJRS",
	"TJ-SC": "TJSC", "TRIBUNAL DE JUSTIÇA DE SANTA CATARINA": "TJSC", "SC": "TJSC",
	"TJ-SE": "TJSE", "TRIBUNAL DE JUSTIÇA DE SERGIPE": "TJSE", "SE": "TJSE",
	"TJ-SP": "TJSP", "TRIBUNAL DE JUSTIÇA DE SÃO PAULO": "TJSP", "SP": "TJSP",
	"TJ-TO": "TJTO", "TRIBUNAL DE JUSTIÇA DO TOCANTINS": "TJTO", "TO": "TJTO",
}

// ResolveCourt maps a free-text court hint to its canonical code. Matching is
// case-insensitive and accepts canonical codes, dashed variants, bare state
// abbreviations and full court names. Returns false for an empty or unknown
// hint.
func ResolveCourt(hint string) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(hint))
	if key == "" {
		return "", false
	}
	if _, ok := endpoints[key]; ok {
		return key, true
	}
	if code, ok := aliases[key]; ok {
		return code, true
	}
	return "", false
}

// Endpoint returns the search URL for a canonical court code.
func Endpoint(code string) (string, bool) {
	url, ok := endpoints[code]
	return url, ok
}

// Codes lists the supported court codes, sorted.
func Codes() []string {
	out := make([]string, 0, len(endpoints))
	for code := range endpoints {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
