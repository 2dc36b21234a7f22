package content

// Merge overlays update onto prior. Non-empty scalars in update win; a non-empty list
// in update replaces the prior list wholesale so ordering stays as the update has it.
func Merge(prior, update Resume) (merged Resume) {
	merged = prior

	merged.Name = pick(update.Name, prior.Name)
	merged.Headline = pick(update.Headline, prior.Headline)
	merged.Summary = pick(update.Summary, prior.Summary)

	merged.Contact = Contact{
		Email:    pick(update.Contact.Email, prior.Contact.Email),
		Phone:    pick(update.Contact.Phone, prior.Contact.Phone),
		Location: pick(update.Contact.Location, prior.Contact.Location),
		LinkedIn: pick(update.Contact.LinkedIn, prior.Contact.LinkedIn),
		Website:  pick(update.Contact.Website, prior.Contact.Website),
	}

	if len(update.Experience) > 0 {
		merged.Experience = update.Experience
	}
	if len(update.Education) > 0 {
		merged.Education = update.Education
	}
	if len(update.Skills) > 0 {
		merged.Skills = update.Skills
	}
	if len(update.Achievements) > 0 {
		merged.Achievements = update.Achievements
	}

	return merged
}

func pick(preferred, fallback string) (value string) {
	value = preferred
	if value == "" {
		value = fallback
	}
	return value
}
