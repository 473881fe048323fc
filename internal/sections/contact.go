package sections

// ContactKey names one contact attribute.
type ContactKey string

const (
	ContactEmail     ContactKey = "email"
	ContactPhone     ContactKey = "phone"
	ContactLocation  ContactKey = "location"
	ContactLinkedIn  ContactKey = "linkedin"
	ContactGitHub    ContactKey = "github"
	ContactPortfolio ContactKey = "portfolio"
	ContactWebsite   ContactKey = "website"
	ContactTwitter   ContactKey = "twitter"
)

// ContactFieldsFor returns the contact inputs the editing surface offers for f.
// Email, phone, location and LinkedIn are always offered.
func ContactFieldsFor(f Field) []ContactKey {
	f = ParseField(string(f))
	keys := []ContactKey{ContactEmail, ContactPhone, ContactLocation, ContactLinkedIn}
	if f == Tech || f == General {
		keys = append(keys, ContactGitHub)
	}
	if f == Tech || f == Design || f == General {
		keys = append(keys, ContactPortfolio)
	}
	if f == Marketing {
		keys = append(keys, ContactTwitter)
	}
	if f != Tech && f != Design && f != Marketing {
		keys = append(keys, ContactWebsite)
	}
	return keys
}

var contactKeys = []ContactKey{
	ContactEmail, ContactPhone, ContactLocation, ContactLinkedIn,
	ContactGitHub, ContactPortfolio, ContactWebsite, ContactTwitter,
}

// ParseContactKey resolves s to a known contact attribute.
func ParseContactKey(s string) (ContactKey, bool) {
	for _, k := range contactKeys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}
