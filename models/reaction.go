package models

// ReactionQuery ist der Query-Parameter des Vorhersage-Endpunkts.
type ReactionQuery struct {
	Formula string `form:"q"`
}

// ReactionResult beschreibt das vom Modell vorhergesagte Reaktionsprodukt.
// Bei tolerantem Parsing können Felder leer bleiben und fehlen dann im JSON.
type ReactionResult struct {
	Formula     string `json:"formula,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Emoji       string `json:"emoji,omitempty"`
}

// Complete meldet, ob alle vier Felder befüllt sind.
func (r *ReactionResult) Complete() bool {
	return r.Formula != "" && r.Name != "" && r.Description != "" && r.Emoji != ""
}
