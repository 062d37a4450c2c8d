package normalizer

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/editais-pncp/portal-client/internal/core/domain"
)

func decode(t *testing.T, s string) domain.RawNotice {
	t.Helper()
	var raw domain.RawNotice
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&raw))
	return raw
}

func TestKey_CompositeTreatsZeroAsPresent(t *testing.T) {
	raw := domain.RawNotice{
		"cnpjOrgao":    "12345678000199",
		"anoCompra":    2024,
		"numeroCompra": 0,
	}
	assert.Equal(t, "12345678000199_2024_0", Key(raw))
}

func TestKey_CompositeFromDecodedJSON(t *testing.T) {
	raw := decode(t, `{"orgaoEntidade":{"cnpj":"12345678000199","razaoSocial":"ACME Ltda"},"anoCompra":2024,"numeroCompra":0}`)
	assert.Equal(t, "12345678000199_2024_0", Key(raw))
}

func TestKey_NestedTaxIDWinsOverFlat(t *testing.T) {
	raw := domain.RawNotice{
		"orgaoEntidade": map[string]any{"cnpj": "11111111000111"},
		"cnpjOrgao":     "22222222000122",
		"ano":           "2023",
		"numero":        "7",
	}
	assert.Equal(t, "11111111000111_2023_7", Key(raw))
}

func TestKey_EmptyNestedFallsBackToFlat(t *testing.T) {
	raw := domain.RawNotice{
		"orgaoEntidade": map[string]any{"cnpj": ""},
		"cnpjOrgao":     "22222222000122",
		"ano":           2023.0,
		"numero":        12.0,
	}
	assert.Equal(t, "22222222000122_2023_12", Key(raw))
}

func TestKey_FallbackPrecedence(t *testing.T) {
	tests := []struct {
		name string
		raw  domain.RawNotice
		want string
	}{
		{"chave when composite incomplete", domain.RawNotice{"chave": "X", "cnpjOrgao": "123"}, "X"},
		{"chave before id", domain.RawNotice{"chave": "X", "id": "Y"}, "X"},
		{"id when no chave", domain.RawNotice{"id": "Y"}, "Y"},
		{"null year is absent", domain.RawNotice{"cnpjOrgao": "123", "ano": nil, "numero": 1, "id": "Y"}, "Y"},
		{"nothing", domain.RawNotice{"objeto": "servicos"}, ""},
		{"nil record", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.raw))
		})
	}
}

func TestNormalize_IsDeterministic(t *testing.T) {
	raw := decode(t, `{"cnpjOrgao":"12345678000199","ano":2024,"numero":5,"objetoCompra":"Obras","valorTotalEstimado":"1500.75"}`)
	first := Normalize(raw)
	second := Normalize(raw)
	assert.Equal(t, first, second)
	assert.Equal(t, "12345678000199_2024_5", first.Key)
}

func TestNormalize_ExtractsFields(t *testing.T) {
	raw := decode(t, `{
		"orgaoEntidade": {"cnpj": "12345678000199", "razaoSocial": "ACME Ltda"},
		"anoCompra": 2024,
		"numeroCompra": 3,
		"objeto": "Aquisição de computadores",
		"objetoCompra": "ignorado",
		"modalidadeNome": "Pregão",
		"processo": "PROC-77/2024",
		"valorTotalEstimado": 1234.5,
		"dataAberturaProposta": "2024-03-01T09:00:00"
	}`)

	n := Normalize(raw)
	assert.Equal(t, "12345678000199", n.TaxID)
	assert.Equal(t, "ACME Ltda", n.LegalName)
	assert.Equal(t, "Aquisição de computadores", n.ObjectDescription)
	assert.Equal(t, "Pregão", n.Modality)
	assert.Equal(t, "PROC-77/2024", n.Process)
	assert.Equal(t, "2024", n.Year)
	assert.Equal(t, "3", n.Sequence)
	require.NotNil(t, n.EstimatedTotal)
	assert.InDelta(t, 1234.5, *n.EstimatedTotal, 1e-9)
	assert.True(t, n.Linkable())
	assert.Equal(t, raw, n.Raw)
}

func TestNormalize_MalformedFieldsDegrade(t *testing.T) {
	raw := domain.RawNotice{
		"orgaoEntidade":      "not an object",
		"valorTotalEstimado": "abc",
		"objeto":             true,
	}
	n := Normalize(raw)
	assert.Equal(t, "", n.Key)
	assert.Equal(t, "", n.TaxID)
	assert.Equal(t, "", n.ObjectDescription)
	assert.Nil(t, n.EstimatedTotal)
	assert.False(t, n.Linkable())
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	out := NormalizeAll([]domain.RawNotice{{"id": "b"}, {"id": "a"}, {}})
	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].Key)
	assert.Equal(t, "a", out[1].Key)
	assert.Equal(t, "", out[2].Key)
}

func TestNormalizeItem(t *testing.T) {
	item := NormalizeItem(domain.RawItem{
		"numeroItem":            1,
		"item":                  "Notebook",
		"qtd":                   10,
		"valorUnitarioEstimado": "3500",
		"un":                    "UN",
	})
	assert.Equal(t, "1", item.Key)
	assert.Equal(t, "Notebook", item.Description)
	assert.Equal(t, "10", item.Quantity)
	assert.Equal(t, "UN", item.Unit)
	require.NotNil(t, item.UnitValue)
	assert.InDelta(t, 3500.0, *item.UnitValue, 1e-9)
}
