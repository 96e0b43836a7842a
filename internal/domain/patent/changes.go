package patent

// fieldComparator pairs a changed-fields label with the predicate that
// detects a difference between the stored and incoming records for that
// field.  Keeping detection in one table prevents the loader and the
// integration service from drifting apart on comparison semantics.
type fieldComparator struct {
	name    string
	differs func(old, incoming *Patent) bool
}

func datePtr(d *PatentDates, pick func(*PatentDates) *Date) Date {
	if d == nil {
		return Date{}
	}
	if p := pick(d); p != nil {
		return *p
	}
	return Date{}
}

func dateDiffers(old, incoming *Patent, pick func(*PatentDates) *Date) bool {
	return !datePtr(old.Dates, pick).Equal(datePtr(incoming.Dates, pick))
}

// changeComparators lists every tracked field in report order: the four
// scalar fields, the four date fields by value equality, then the five
// array fields by length only.  Length-only comparison for arrays is
// deliberate: sources reorder array elements freely, and a length change is
// the signal worth recording.
var changeComparators = []fieldComparator{
	{"title", func(o, n *Patent) bool { return o.Title != n.Title }},
	{"abstract", func(o, n *Patent) bool { return o.Abstract != n.Abstract }},
	{"description", func(o, n *Patent) bool { return o.Description != n.Description }},
	{"kind_code", func(o, n *Patent) bool { return o.KindCode != n.KindCode }},

	{"dates.filing", func(o, n *Patent) bool {
		return dateDiffers(o, n, func(d *PatentDates) *Date { return d.Filing })
	}},
	{"dates.publication", func(o, n *Patent) bool {
		return dateDiffers(o, n, func(d *PatentDates) *Date { return d.Publication })
	}},
	{"dates.grant", func(o, n *Patent) bool {
		return dateDiffers(o, n, func(d *PatentDates) *Date { return d.Grant })
	}},
	{"dates.priority", func(o, n *Patent) bool {
		return dateDiffers(o, n, func(d *PatentDates) *Date { return d.Priority })
	}},

	{"inventors", func(o, n *Patent) bool { return len(o.Inventors) != len(n.Inventors) }},
	{"assignees", func(o, n *Patent) bool { return len(o.Assignees) != len(n.Assignees) }},
	{"claims", func(o, n *Patent) bool { return len(o.Claims) != len(n.Claims) }},
	{"classifications", func(o, n *Patent) bool { return len(o.Classifications) != len(n.Classifications) }},
	{"citations", func(o, n *Patent) bool { return len(o.Citations) != len(n.Citations) }},
}

// DetectChangedFields compares the stored record against the incoming one
// and returns the labels of every tracked field that differs, in table
// order.  When nothing differs it returns ["general_update"] so every write
// still records one change-history entry.
func DetectChangedFields(old, incoming *Patent) []string {
	var changed []string
	for _, c := range changeComparators {
		if c.differs(old, incoming) {
			changed = append(changed, c.name)
		}
	}
	if len(changed) == 0 {
		return []string{"general_update"}
	}
	return changed
}
