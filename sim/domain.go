package sim

// A Domain bundles closely related components behind a shared set of ports.
type Domain struct {
	*PortOwnerBase

	name string
}

// NewDomain creates a Domain with the given name.
func NewDomain(name string) *Domain {
	NameMustBeValid(name)

	return &Domain{
		PortOwnerBase: NewPortOwnerBase(),
		name:          name,
	}
}

// Name returns the name of the domain.
func (d Domain) Name() string {
	return d.name
}
