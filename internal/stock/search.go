package stock

import (
	"sort"
	"strings"

	"go-label-ws/internal/model"
)

// Filter keeps the items whose description, serial or type contains q,
// ignoring case. An empty query keeps everything.
func Filter(items []model.StockItem, q string) []model.StockItem {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return items
	}
	out := make([]model.StockItem, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Descricao), q) ||
			strings.Contains(strings.ToLower(it.Serial), q) ||
			strings.Contains(strings.ToLower(it.Tipo), q) {
			out = append(out, it)
		}
	}
	return out
}

// Suggestions are the distinct values already typed in the dynamic fields,
// offered as autocomplete.
type Suggestions struct {
	Locais       []string `json:"locais"`
	Responsaveis []string `json:"responsaveis"`
}

func CollectSuggestions(items []model.StockItem) Suggestions {
	locais := map[string]struct{}{}
	responsaveis := map[string]struct{}{}
	for _, it := range items {
		add(locais, it.LocalAtual)
		add(responsaveis, it.AutorizadoPor)
		add(responsaveis, it.ResponsavelManutencao)
	}
	return Suggestions{Locais: sorted(locais), Responsaveis: sorted(responsaveis)}
}

func add(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
