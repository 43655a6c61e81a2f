// Package geo holds the fixed catalog of geographic search partitions.
package geo

// Region pairs a country code with the platform's geo identifier.
type Region struct {
	Code       string
	PlatformID string
}

var regions = []Region{
	{"ar", "100446943"},
	{"at", "103883259"},
	{"au", "101452733"},
	{"be", "100565514"},
	{"bg", "105333783"},
	{"ca", "101174742"},
	{"ch", "106693272"},
	{"cl", "104621616"},
	{"de", "101282230"},
	{"dk", "104514075"},
	{"es", "105646813"},
	{"fi", "100456013"},
	{"fo", "104630756"},
	{"fr", "105015875"},
	{"gb", "101165590"},
	{"gf", "105001561"},
	{"gp", "104232339"},
	{"gr", "104677530"},
	{"gu", "107006862"},
	{"hr", "104688944"},
	{"hu", "100288700"},
	{"is", "105238872"},
	{"it", "103350119"},
	{"li", "100878084"},
	{"lu", "104042105"},
	{"mq", "103091690"},
	{"nl", "102890719"},
	{"no", "103819153"},
	{"nz", "105490917"},
	{"pe", "102927786"},
	{"pl", "105072130"},
	{"pr", "105245958"},
	{"pt", "100364837"},
	{"py", "104065273"},
	{"re", "104265812"},
	{"rs", "101855366"},
	{"ru", "101728296"},
	{"se", "105117694"},
	{"sg", "102454443"},
	{"si", "106137034"},
	{"tw", "104187078"},
	{"ua", "102264497"},
	{"us", "103644278"},
	{"uy", "100867946"},
	{"ve", "101490751"},
}

// Regions returns a copy of the catalog in its defined order.
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// Len is the catalog size.
func Len() int {
	return len(regions)
}

// Lookup finds a region by country code.
func Lookup(code string) (Region, bool) {
	for _, r := range regions {
		if r.Code == code {
			return r, true
		}
	}
	return Region{}, false
}
