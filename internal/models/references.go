package models

// ReferencesModel References model for related data
type ReferencesModel struct {
	Datasets []interface{} `json:"datasets"`
	Routes   []interface{} `json:"routes"`
}

// NewEmptyReferences creates a new empty References model with initialized empty slices
func NewEmptyReferences() ReferencesModel {
	return ReferencesModel{
		Datasets: []interface{}{},
		Routes:   []interface{}{},
	}
}
