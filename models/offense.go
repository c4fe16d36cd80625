package models

// Question represents a single intake question. Slot names the structured field
// the question is designed to elicit and is empty for free-narrative questions.
type Question struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
	Slot string `json:"slot,omitempty" yaml:"slot,omitempty"`
}

// Slots represents the required and optional structured fields of an element
type Slots struct {
	Must       []string `json:"must" yaml:"must"`
	NiceToHave []string `json:"nice_to_have" yaml:"nice_to_have"`
}

// Element represents one legal constituent fact of an offense
type Element struct {
	ID        string     `json:"id" yaml:"id"`
	Label     string     `json:"label" yaml:"label"`
	Required  bool       `json:"required" yaml:"required"`
	Slots     Slots      `json:"slots" yaml:"slots"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Offense represents a merged, validated offense schema. It is shared by every
// session of the same offense key and must not be modified after loading.
type Offense struct {
	Offense          string                 `json:"offense" yaml:"offense"`
	Title            string                 `json:"title" yaml:"title"`
	StatuteReference string                 `json:"statute_reference" yaml:"statute_reference"`
	Elements         []Element              `json:"elements" yaml:"elements"`
	Templates        map[string]interface{} `json:"templates" yaml:"templates"`
	Includes         []string               `json:"includes" yaml:"includes"`
	PartyInfo        []Question             `json:"party_info" yaml:"-"`
}

// Element returns the element with the given id
func (o *Offense) Element(id string) (*Element, bool) {
	for i := range o.Elements {
		if o.Elements[i].ID == id {
			return &o.Elements[i], true
		}
	}
	return nil, false
}

// ElementIDs returns element ids in declaration order
func (o *Offense) ElementIDs() []string {
	ids := make([]string, 0, len(o.Elements))
	for _, e := range o.Elements {
		ids = append(ids, e.ID)
	}
	return ids
}

// Mixin represents a reusable named question set included by offense schemas
type Mixin struct {
	Mixin     string     `yaml:"mixin"`
	Questions []Question `yaml:"questions"`
}
