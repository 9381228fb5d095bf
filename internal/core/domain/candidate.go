package domain

type Candidate struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Affiliation string `json:"affiliation" yaml:"affiliation"`
	Symbol      string `json:"symbol" yaml:"symbol"`
	VoteCount   int64  `json:"vote_count" yaml:"-"`
	ColorTag    string `json:"color_tag" yaml:"color_tag"`
}

// FindCandidate returns the index of the candidate with the given id, or -1.
func FindCandidate(candidates []Candidate, id string) int {
	for i := range candidates {
		if candidates[i].ID == id {
			return i
		}
	}
	return -1
}
