package model

// Site identifies one of the two managed WordPress properties.
type Site string

const (
	SitePublic Site = "public"
	SiteSalon  Site = "salon"
)

// AllSites is the closed set of managed sites.
var AllSites = []Site{SitePublic, SiteSalon}

func IsValidSite(s string) bool {
	return s == string(SitePublic) || s == string(SiteSalon)
}
