package model

// ResultKind tags the variant carried by a QueryResult.
type ResultKind string

const (
	ResultCount      ResultKind = "count"
	ResultDistinct   ResultKind = "distinct"
	ResultGroupCount ResultKind = "group_count"
	ResultSumArea    ResultKind = "sum_area"
	ResultList       ResultKind = "list"
)

// QueryResult is the tagged union produced by the query execution engine.
// Exactly the fields of the tagged variant are populated.
type QueryResult struct {
	Kind   ResultKind    `json:"kind"`
	Count  int           `json:"count,omitempty"`
	Values []string      `json:"values,omitempty"`
	Groups []GroupCount  `json:"groups,omitempty"`
	Sum    *AreaSum      `json:"sum,omitempty"`
	Rows   []ElementView `json:"rows,omitempty"`
}

// GroupCount is one group_count bucket.
type GroupCount struct {
	Value string `json:"value" db:"value"`
	Count int    `json:"count" db:"count"`
}

// AreaSum is the sum_area aggregate. Skipped counts rows whose property
// value held no extractable number.
type AreaSum struct {
	Total   float64 `json:"total"`
	Counted int     `json:"counted"`
	Skipped int     `json:"skipped"`
}

// IsEmpty reports whether the result carries nothing to show the user.
func (r *QueryResult) IsEmpty() bool {
	switch r.Kind {
	case ResultCount:
		return r.Count == 0
	case ResultDistinct:
		return len(r.Values) == 0
	case ResultGroupCount:
		return len(r.Groups) == 0
	case ResultSumArea:
		return r.Sum == nil || r.Sum.Counted == 0
	case ResultList:
		return len(r.Rows) == 0
	}
	return true
}

// ElementView re-nests a flat element row into the attribute groups used
// for presentation.
type ElementView struct {
	ElementID      int64               `json:"element_id"`
	Name           string              `json:"name"`
	Basic          BasicAttrs          `json:"basic"`
	Location       LocationAttrs       `json:"location"`
	System         SystemAttrs         `json:"system"`
	Equipment      EquipmentAttrs      `json:"equipment"`
	Classification ClassificationAttrs `json:"classification"`
}

// BasicAttrs groups the identity attributes of an element.
type BasicAttrs struct {
	Category   string `json:"category"`
	TypeName   string `json:"type_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	IsAsset    bool   `json:"is_asset"`
}

// LocationAttrs groups the placement attributes of an element.
type LocationAttrs struct {
	Level    string `json:"level,omitempty"`
	RoomType string `json:"room_type,omitempty"`
	RoomName string `json:"room_name,omitempty"`
}

// SystemAttrs groups the MEP system attributes of an element.
type SystemAttrs struct {
	SystemType string `json:"system_type,omitempty"`
	SystemName string `json:"system_name,omitempty"`
}

// EquipmentAttrs groups the equipment attributes of an element.
type EquipmentAttrs struct {
	Manufacturer  string `json:"manufacturer,omitempty"`
	ModelName     string `json:"model_name,omitempty"`
	Specification string `json:"specification,omitempty"`
}

// ClassificationAttrs groups the classification-scheme attributes.
type ClassificationAttrs struct {
	Title  string `json:"title,omitempty"`
	Number string `json:"number,omitempty"`
}

// ViewOf builds the presentation view of an element row.
func ViewOf(e Element) ElementView {
	return ElementView{
		ElementID: e.ElementID,
		Name:      e.Name,
		Basic: BasicAttrs{
			Category:   e.Category,
			TypeName:   e.TypeName,
			FamilyName: e.FamilyName,
			IsAsset:    e.IsAsset,
		},
		Location: LocationAttrs{
			Level:    e.Level,
			RoomType: e.RoomType,
			RoomName: e.RoomName,
		},
		System: SystemAttrs{
			SystemType: e.SystemType,
			SystemName: e.SystemName,
		},
		Equipment: EquipmentAttrs{
			Manufacturer:  e.Manufacturer,
			ModelName:     e.ModelName,
			Specification: e.Specification,
		},
		Classification: ClassificationAttrs{
			Title:  e.ClassificationTitle,
			Number: e.ClassificationNumber,
		},
	}
}
