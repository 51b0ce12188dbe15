package model

// TaskType identifies what the question asks the engine to compute.
type TaskType string

const (
	TaskCount      TaskType = "count"
	TaskDistinct   TaskType = "distinct"
	TaskGroupCount TaskType = "group_count"
	TaskSumArea    TaskType = "sum_area"
	TaskList       TaskType = "list"
)

// ParseTaskType maps inference output to a known task, defaulting to list.
func ParseTaskType(s string) TaskType {
	switch TaskType(s) {
	case TaskCount, TaskDistinct, TaskGroupCount, TaskSumArea, TaskList:
		return TaskType(s)
	}
	return TaskList
}

// FilterAttr is a queryable element attribute. Only members of the closed
// allow-list below may ever reach a WHERE or GROUP BY clause; anything else
// coming back from inference is discarded.
type FilterAttr string

const (
	AttrLevel        FilterAttr = "level"
	AttrRoomName     FilterAttr = "room_name"
	AttrRoomType     FilterAttr = "room_type"
	AttrSystemType   FilterAttr = "system_type"
	AttrSystemName   FilterAttr = "system_name"
	AttrManufacturer FilterAttr = "manufacturer"
	AttrModelName    FilterAttr = "model_name"
	AttrTypeName     FilterAttr = "type_name"
	AttrFamilyName   FilterAttr = "family_name"
)

var attrColumns = map[FilterAttr]string{
	AttrLevel:        "level",
	AttrRoomName:     "room_name",
	AttrRoomType:     "room_type",
	AttrSystemType:   "system_type",
	AttrSystemName:   "system_name",
	AttrManufacturer: "manufacturer",
	AttrModelName:    "model_name",
	AttrTypeName:     "type_name",
	AttrFamilyName:   "family_name",
}

// ParseFilterAttr returns the attribute if it is allow-listed.
func ParseFilterAttr(s string) (FilterAttr, bool) {
	attr := FilterAttr(s)
	_, ok := attrColumns[attr]
	return attr, ok
}

// Column returns the elements table column backing the attribute. The empty
// string means the attribute is not allow-listed and must not be queried.
func (a FilterAttr) Column() string {
	return attrColumns[a]
}

// CatalogAttrs is the fixed attribute list sampled into the catalog and
// offered to parameter inference.
var CatalogAttrs = []FilterAttr{
	AttrLevel,
	AttrRoomName,
	AttrRoomType,
	AttrSystemType,
	AttrSystemName,
	AttrManufacturer,
}

// QueryPlan threads the resolved question through the pipeline stages.
// It is built incrementally and never persisted.
type QueryPlan struct {
	ModelURN      string     `json:"model_urn"`
	Question      string     `json:"question"`
	InScope       bool       `json:"in_scope"`
	Task          TaskType   `json:"task"`
	Category      string     `json:"category,omitempty"`
	Limit         int        `json:"limit"`
	Notes         string     `json:"notes,omitempty"`
	UseSemantic   bool       `json:"use_semantic"`
	SemanticQuery string     `json:"semantic_query,omitempty"`
	TopK          int        `json:"top_k,omitempty"`
	FilterAttr    FilterAttr `json:"filter_attr,omitempty"`
	FilterValue   string     `json:"filter_value,omitempty"`
	TargetAttr    FilterAttr `json:"target_attr,omitempty"`
	AreaKey       string     `json:"area_key,omitempty"`
	CandidateIDs  []int64    `json:"-"`
}
