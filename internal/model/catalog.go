package model

// CatalogSnapshot is the per-request, dataset-derived vocabulary every
// inference step is grounded on. It is recomputed from the live rows of one
// model URN and never persisted.
type CatalogSnapshot struct {
	ModelURN     string              `json:"model_urn"`
	Categories   []string            `json:"categories"`
	ParamSamples map[string][]string `json:"param_samples"`
	AreaKeys     []string            `json:"area_keys"`
}

// HasCategory reports whether c is present verbatim in the snapshot.
func (s *CatalogSnapshot) HasCategory(c string) bool {
	for _, v := range s.Categories {
		if v == c {
			return true
		}
	}
	return false
}

// HasAreaKey reports whether k is one of the sampled area property keys.
func (s *CatalogSnapshot) HasAreaKey(k string) bool {
	for _, v := range s.AreaKeys {
		if v == k {
			return true
		}
	}
	return false
}
