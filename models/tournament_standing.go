package models

// Standing - строка турнирной таблицы. Пересчитывается целиком после каждого результата.
type Standing struct {
	ParticipantID string  `json:"participantId"`
	Points        float64 `json:"points"`
	Wins          int     `json:"wins"`
	Draws         int     `json:"draws"`
	Losses        int     `json:"losses"`
	Rating        float64 `json:"rating"`
	Position      int     `json:"position"` // 1-based rank
	Buchholz      float64 `json:"buchholz"`
	Berger        float64 `json:"berger"`
}
