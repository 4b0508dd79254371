package domain

// Kind discriminates the entities an identifier can resolve to. It is carried
// in the resolver response, never inferred client-side.
type Kind string

const (
	KindProduct Kind = "product"
	KindUser    Kind = "user"
)

// Identifiable is the closed set of catalog entities a scanned identifier can
// resolve to: a Product or a User.
type Identifiable interface {
	EntityKind() Kind
}

func (Product) EntityKind() Kind { return KindProduct }
func (User) EntityKind() Kind    { return KindUser }
