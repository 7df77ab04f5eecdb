package templates

import (
	"encoding/json"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/opst/podconsole/pkg/api/types/internal/cmp"
	"k8s.io/apimachinery/pkg/api/resource"
)

// Template is a blueprint from which pods and virtual machines are deployed.
type Template struct {
	Id          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Image       Image     `json:"image,omitempty"`
	Resources   Resources `json:"resources,omitempty"`
}

func (t Template) Equal(o Template) bool {
	return t.Id == o.Id &&
		t.Name == o.Name &&
		t.Description == o.Description &&
		t.Image == o.Image &&
		t.Resources.Equal(o.Resources)
}

// List is the response of GET /templates .
type List struct {
	Templates []Template `json:"templates"`
}

func (l List) Equal(o List) bool {
	return cmp.SliceEqual(l.Templates, o.Templates)
}

// Image is an image reference as the API sends it.
//
// It is kept as is; references which Ref can not parse are still valid Images.
type Image string

// Ref parses the image as "[<registry>/]<repository>(:<tag>|@<digest>)".
func (i Image) Ref() (name.Reference, error) {
	return name.ParseReference(string(i), name.WithDefaultRegistry(""))
}

// Resources maps resource type (cpu, memory, ...) to its amount.
type Resources map[string]resource.Quantity

const (
	CPU    = "cpu"
	Memory = "memory"
)

func (r Resources) Equal(o Resources) bool {
	return cmp.MapEqual(r, o)
}

// Get returns the quantity for the resource type, or zero.
func (r Resources) Get(typ string) resource.Quantity {
	if q, ok := r[typ]; ok {
		return q
	}
	return resource.Quantity{}
}

func (r Resources) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]resource.Quantity(r))
}

func (r *Resources) UnmarshalJSON(b []byte) error {
	var m map[string]resource.Quantity
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*r = Resources(m)
	return nil
}
