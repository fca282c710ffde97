package action

// Category identifies what kind of notice the parent is filing.
type Category string

const (
	CategoryAbsence    Category = "absence"
	CategoryTardiness  Category = "tardiness"
	CategoryLeaveEarly Category = "leave_early"
	CategoryContact    Category = "contact"
	CategoryQuestion   Category = "question"
	CategoryConsult    Category = "consult"
	CategoryTechnical  Category = "technical"
	CategoryOther      Category = "other"

	// Group placeholders, replaced by a sub-category before a description is asked.
	CategoryContactQuestion Category = "contactQuestion"
	CategoryOthers          Category = "others"
)

// WhenKind tells which value a category collects for When.
type WhenKind int

const (
	WhenNone WhenKind = iota
	WhenDate
	WhenDateTime
)

// NotApplicable is stored in When for categories that carry no date.
const NotApplicable = "NA"

// DateLayout and DateTimeLayout match the values produced by the date pickers.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04"
)

func (c Category) WhenKind() WhenKind {
	switch c {
	case CategoryAbsence:
		return WhenDate
	case CategoryTardiness, CategoryLeaveEarly:
		return WhenDateTime
	default:
		return WhenNone
	}
}

// IsGroup reports whether the category still needs a sub-category choice.
func (c Category) IsGroup() bool {
	return c == CategoryContactQuestion || c == CategoryOthers
}

// SubCategories lists the choices offered for a group category.
func (c Category) SubCategories() []Category {
	switch c {
	case CategoryContactQuestion:
		return []Category{CategoryContact, CategoryQuestion, CategoryConsult}
	case CategoryOthers:
		return []Category{CategoryTechnical, CategoryOther}
	default:
		return nil
	}
}

// Submittable reports whether a finished action of this category can be sent.
func (c Category) Submittable() bool {
	switch c {
	case CategoryAbsence, CategoryTardiness, CategoryLeaveEarly,
		CategoryContact, CategoryQuestion, CategoryConsult, CategoryTechnical, CategoryOther:
		return true
	default:
		return false
	}
}

// ParseCategory accepts submittable and group categories.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	if c.Submittable() || c.IsGroup() {
		return c, true
	}
	return "", false
}
