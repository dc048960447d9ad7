package model

// Placeholder values used until the user edits their profile.
const (
	DefaultProfileName  = "CodeVault User"
	DefaultProfileWork  = "Full-stack Developer | Loves solving problems"
	DefaultProfilePhoto = "https://via.placeholder.com/100"
)

// Profile is the single profile record shown next to the snippet list.
type Profile struct {
	Name  string `json:"name"`
	Work  string `json:"work"`  // free-text tagline
	Photo string `json:"photo"` // avatar URL
}

// DefaultProfile returns the profile used before anything is stored.
func DefaultProfile() Profile {
	return Profile{
		Name:  DefaultProfileName,
		Work:  DefaultProfileWork,
		Photo: DefaultProfilePhoto,
	}
}

// Merge returns p with every non-empty field of patch applied.
// Empty fields in patch keep the current value, so a partial record never
// blanks out a field.
func (p Profile) Merge(patch Profile) Profile {
	if patch.Name != "" {
		p.Name = patch.Name
	}
	if patch.Work != "" {
		p.Work = patch.Work
	}
	if patch.Photo != "" {
		p.Photo = patch.Photo
	}
	return p
}
