package contacts

import "strings"

// Snapshot is the result of one bulk enumeration, in enumeration order.
//
// Same-named contacts are collapsed: the name keeps its first position and
// the phones of its last occurrence. The zero value is an empty Snapshot.
type Snapshot struct {
	contacts []Contact
}

// NewSnapshot builds a Snapshot from contacts in enumeration order, applying
// the same filtering and collapsing as a live enumeration. maxContacts <= 0
// means DefaultMaxContacts.
func NewSnapshot(contacts []Contact, maxContacts int) Snapshot {
	if maxContacts <= 0 {
		maxContacts = DefaultMaxContacts
	}
	cleaned := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if c, ok := cleanContact(c); ok {
			cleaned = append(cleaned, c)
		}
	}
	return newSnapshot(cleaned, maxContacts)
}

func newSnapshot(contacts []Contact, maxContacts int) Snapshot {
	index := make(map[string]int, len(contacts))
	collapsed := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if i, ok := index[c.Name]; ok {
			collapsed[i].Phones = c.Phones
			continue
		}
		index[c.Name] = len(collapsed)
		collapsed = append(collapsed, c)
	}
	if len(collapsed) > maxContacts {
		collapsed = collapsed[:maxContacts]
	}
	return Snapshot{contacts: collapsed}
}

// Len returns the number of contacts.
func (s Snapshot) Len() int {
	return len(s.contacts)
}

// Contacts returns a copy of the contacts in enumeration order.
func (s Snapshot) Contacts() []Contact {
	out := make([]Contact, len(s.contacts))
	for i, c := range s.contacts {
		out[i] = Contact{Name: c.Name, Phones: append([]string(nil), c.Phones...)}
	}
	return out
}

// Numbers returns contact name -> phone numbers. The map is never nil.
func (s Snapshot) Numbers() map[string][]string {
	out := make(map[string][]string, len(s.contacts))
	for _, c := range s.contacts {
		out[c.Name] = append([]string(nil), c.Phones...)
	}
	return out
}

// PhonesByName returns the phones of the first contact whose name contains
// name, ignoring case.
func (s Snapshot) PhonesByName(name string) ([]string, bool) {
	if strings.TrimSpace(name) == "" {
		return nil, false
	}
	c, ok := s.firstNameMatch(foldName(name))
	if !ok {
		return nil, false
	}
	return append([]string(nil), c.Phones...), true
}

func (s Snapshot) firstNameMatch(foldedQuery string) (Contact, bool) {
	for _, c := range s.contacts {
		if nameContains(c.Name, foldedQuery) {
			return c, true
		}
	}
	return Contact{}, false
}

// ContactByPhone returns the name of the first contact with a phone number
// matching phone under PhoneMatches, after normalizing both sides.
func (s Snapshot) ContactByPhone(phone string) (string, bool) {
	if strings.TrimSpace(phone) == "" {
		return "", false
	}
	search := NormalizePhone(phone)
	for _, c := range s.contacts {
		for _, stored := range c.Phones {
			if PhoneMatches(NormalizePhone(stored), search) {
				return c.Name, true
			}
		}
	}
	return "", false
}

// parseRows turns bridge output into contacts. Empty output yields none, a
// single row one contact, and several rows a list. Rows without a name or
// without any non-blank phone are skipped.
func parseRows(out string) []Contact {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}
	lines := strings.Split(out, "\n")
	contacts := make([]Contact, 0, len(lines))
	for _, line := range lines {
		parts := strings.Split(strings.TrimRight(line, "\r"), rowFieldSep)
		c, ok := cleanContact(Contact{Name: parts[0], Phones: parts[1:]})
		if !ok {
			continue
		}
		contacts = append(contacts, c)
	}
	return contacts
}

func cleanContact(c Contact) (Contact, bool) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return Contact{}, false
	}
	phones := make([]string, 0, len(c.Phones))
	for _, phone := range c.Phones {
		phone = strings.TrimSpace(phone)
		if phone == "" {
			continue
		}
		phones = append(phones, phone)
	}
	if len(phones) == 0 {
		return Contact{}, false
	}
	return Contact{Name: name, Phones: phones}, true
}
