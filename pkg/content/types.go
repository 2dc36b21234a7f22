package content

// Resume is the structured résumé content for one generation run.
type Resume struct {
	Name         string       `json:"name" yaml:"name"`
	Headline     string       `json:"headline,omitempty" yaml:"headline,omitempty"`
	Contact      Contact      `json:"contact" yaml:"contact"`
	Summary      string       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Experience   []Experience `json:"experience" yaml:"experience"`
	Education    []Education  `json:"education" yaml:"education"`
	Skills       []Skill      `json:"skills" yaml:"skills"`
	Achievements []string     `json:"achievements" yaml:"achievements"`
}

// Contact holds contact details. Every field is optional.
type Contact struct {
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone    string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty" yaml:"linkedin,omitempty"`
	Website  string `json:"website,omitempty" yaml:"website,omitempty"`
}

// Experience is a single position, bullets in display order.
type Experience struct {
	Organization string   `json:"organization" yaml:"organization"`
	Title        string   `json:"title" yaml:"title"`
	Time         string   `json:"time,omitempty" yaml:"time,omitempty"`
	Bullets      []string `json:"bullets" yaml:"bullets"`
}

// Education is a single degree or qualification.
type Education struct {
	School  string `json:"school" yaml:"school"`
	Degree  string `json:"degree" yaml:"degree"`
	Time    string `json:"time,omitempty" yaml:"time,omitempty"`
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

// Skill pairs a skill with a proficiency level, e.g. "Go" / "Expert".
type Skill struct {
	Skill string `json:"skill" yaml:"skill"`
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// HasContact reports whether any contact field is set.
func (r Resume) HasContact() (ok bool) {
	c := r.Contact
	ok = c.Email != "" || c.Phone != "" || c.Location != "" || c.LinkedIn != "" || c.Website != ""
	return ok
}

// ContactLine returns the non-empty contact fields in display order.
func (r Resume) ContactLine() (fields []string) {
	fields = make([]string, 0, 5)
	for _, v := range []string{r.Contact.Email, r.Contact.Phone, r.Contact.Location, r.Contact.LinkedIn, r.Contact.Website} {
		if v != "" {
			fields = append(fields, v)
		}
	}
	return fields
}
