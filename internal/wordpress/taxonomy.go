package wordpress

// TaxonomyRole names a taxonomy by what it means to the site rather than by
// its position in the embedded wp:term array.
type TaxonomyRole int

const (
	RoleCategory TaxonomyRole = iota
	RoleTag
	RoleTechnology
)

func (r TaxonomyRole) String() string {
	switch r {
	case RoleCategory:
		return "category"
	case RoleTag:
		return "tag"
	case RoleTechnology:
		return "technology"
	default:
		return "unknown"
	}
}

// Termed is implemented by content items that carry embedded terms.
type Termed interface {
	termSlot(role TaxonomyRole) (int, bool)
	embeddedTerms() [][]Term
}

// Posts embed [categories, tags]; projects embed [categories, technologies].
// These two methods are the only place that knows the positions.

func (p Post) termSlot(role TaxonomyRole) (int, bool) {
	switch role {
	case RoleCategory:
		return 0, true
	case RoleTag:
		return 1, true
	default:
		return 0, false
	}
}

func (p Project) termSlot(role TaxonomyRole) (int, bool) {
	switch role {
	case RoleCategory:
		return 0, true
	case RoleTechnology:
		return 1, true
	default:
		return 0, false
	}
}

func (p Post) embeddedTerms() [][]Term    { return p.Embedded.Terms }
func (p Project) embeddedTerms() [][]Term { return p.Embedded.Terms }

// TermsOf returns the item's embedded terms for role. Roles the item type
// does not carry, and missing slots, yield nil.
func TermsOf(item Termed, role TaxonomyRole) []Term {
	slot, ok := item.termSlot(role)
	if !ok {
		return nil
	}
	terms := item.embeddedTerms()
	if slot >= len(terms) {
		return nil
	}
	return terms[slot]
}

func (p Post) Terms(role TaxonomyRole) []Term    { return TermsOf(p, role) }
func (p Project) Terms(role TaxonomyRole) []Term { return TermsOf(p, role) }

// HasTerm reports whether item carries the term id under role.
func HasTerm(item Termed, role TaxonomyRole, id int) bool {
	for _, t := range TermsOf(item, role) {
		if t.ID == id {
			return true
		}
	}
	return false
}
