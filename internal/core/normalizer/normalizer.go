// Package normalizer derives canonical keys and display fields from notice
// payloads whose shape varies across backend versions.
//
// Each logical field is a Field: a prioritized list of (path, transform)
// extractors. Both the nested and the flat schema may appear in the same
// result set, so the first present source wins.
package normalizer

import (
	"github.com/editais-pncp/portal-client/internal/core/domain"
)

var (
	TaxID = Field{
		At("orgaoEntidade.cnpj", Text),
		At("cnpjOrgao", Text),
	}
	Year = Field{
		At("anoCompra", Text),
		At("ano", Text),
	}
	Sequence = Field{
		At("numeroCompra", Text),
		At("numero", Text),
	}
	ExplicitKey = Field{At("chave", Text)}
	ExplicitID  = Field{At("id", Text)}

	LegalName = Field{
		At("orgaoEntidade.razaoSocial", Text),
		At("razaoSocial", Text),
	}
	ObjectDescription = Field{
		At("objeto", Text),
		At("objetoCompra", Text),
	}
	Modality = Field{
		At("modalidade", Text),
		At("modalidadeNome", Text),
	}
	Process        = Field{At("processo", Text)}
	EstimatedTotal = Field{At("valorTotalEstimado", Number)}
	// EstimatedTotalText is the total exactly as sent, for text search.
	EstimatedTotalText = Field{At("valorTotalEstimado", Text)}
	ProposalOpening    = Field{At("dataAberturaProposta", Text)}
	ProposalClosing    = Field{At("dataEncerramentoProposta", Text)}
	AdditionalInfo     = Field{At("informacaoComplementar", Text)}
)

// Item fields.
var (
	ItemKey = Field{
		At("id", Text),
		At("numeroItem", Text),
		At("numero", Text),
	}
	ItemDescription = Field{
		At("descricao", Text),
		At("item", Text),
	}
	ItemQuantity = Field{
		At("quantidade", Text),
		At("qtd", Text),
	}
	ItemUnitValue = Field{At("valorUnitarioEstimado", Number)}
	ItemUnit      = Field{
		At("unidade", Text),
		At("un", Text),
	}
)

// Key derives the canonical key of a notice:
//
//	{taxId}_{year}_{sequence}  when all three are present
//	chave                      otherwise, when present
//	id                         otherwise, when present
//	""                         the notice is not linkable
func Key(raw domain.RawNotice) string {
	if raw == nil {
		return ""
	}
	rec := map[string]any(raw)

	cnpj, year, seq := TaxID.String(rec), Year.String(rec), Sequence.String(rec)
	if cnpj != "" && year != "" && seq != "" {
		return cnpj + "_" + year + "_" + seq
	}
	if k := ExplicitKey.String(rec); k != "" {
		return k
	}
	return ExplicitID.String(rec)
}

// Normalize projects raw into a Notice. It never fails: missing or malformed
// fields come out empty.
func Normalize(raw domain.RawNotice) domain.Notice {
	if raw == nil {
		return domain.Notice{}
	}
	rec := map[string]any(raw)
	return domain.Notice{
		Key:               Key(raw),
		TaxID:             TaxID.String(rec),
		LegalName:         LegalName.String(rec),
		ObjectDescription: ObjectDescription.String(rec),
		EstimatedTotal:    EstimatedTotal.Float(rec),
		Process:           Process.String(rec),
		Modality:          Modality.String(rec),
		Year:              Year.String(rec),
		Sequence:          Sequence.String(rec),
		ProposalOpening:   ProposalOpening.String(rec),
		ProposalClosing:   ProposalClosing.String(rec),
		AdditionalInfo:    AdditionalInfo.String(rec),
		Raw:               raw,
	}
}

// NormalizeAll normalizes a result set preserving order.
func NormalizeAll(raws []domain.RawNotice) []domain.Notice {
	out := make([]domain.Notice, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

// NormalizeItem projects a line item.
func NormalizeItem(raw domain.RawItem) domain.NoticeItem {
	if raw == nil {
		return domain.NoticeItem{}
	}
	rec := map[string]any(raw)
	return domain.NoticeItem{
		Key:         ItemKey.String(rec),
		Description: ItemDescription.String(rec),
		Quantity:    ItemQuantity.String(rec),
		UnitValue:   ItemUnitValue.Float(rec),
		Unit:        ItemUnit.String(rec),
		Raw:         raw,
	}
}

// NormalizeItems normalizes items preserving order.
func NormalizeItems(raws []domain.RawItem) []domain.NoticeItem {
	out := make([]domain.NoticeItem, 0, len(raws))
	for _, raw := range raws {
		out = append(out, NormalizeItem(raw))
	}
	return out
}
